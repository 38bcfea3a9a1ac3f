// Package domain defines the core types and interfaces for the recipe client.
// All other packages depend on domain; domain depends on nothing.
package domain

// PageSize is the number of recipes the service returns per list page.
const PageSize = 6

// Recipe mirrors the service's full recipe representation.
type Recipe struct {
	ID               int                `json:"id"`
	Tags             []Tag              `json:"tags"`
	Author           UserProfile        `json:"author"`
	Ingredients      []IngredientAmount `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// RecipeShort is the compact representation embedded in subscriptions.
type RecipeShort struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Tag labels a recipe (breakfast, lunch, ...).
type Tag struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// IngredientAmount is an ingredient together with the amount a recipe needs.
type IngredientAmount struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipePage is one page of the paginated recipe list.
type RecipePage struct {
	Count    int      `json:"count"`
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
	Results  []Recipe `json:"results"`
}

// PagesOf returns ceil(count / size), with a floor of 1. A size of zero or
// less means PageSize.
func PagesOf(count, size int) int {
	if size <= 0 {
		size = PageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// RecipeQuery holds the list filters accepted by GET /recipes/.
// Zero values are omitted from the request.
type RecipeQuery struct {
	Page             int
	Limit            int
	Author           int
	Tags             []string // tag slugs
	IsFavorited      bool
	IsInShoppingCart bool
}

// IngredientRef references an ingredient by id when creating a recipe.
type IngredientRef struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// RecipeInput is the body for POST /recipes/ and PATCH /recipes/{id}/.
// Image is a base64 data URI. For PATCH, empty fields are left out.
type RecipeInput struct {
	Ingredients []IngredientRef `json:"ingredients,omitempty"`
	Tags        []int           `json:"tags,omitempty"`
	Image       string          `json:"image,omitempty"`
	Name        string          `json:"name,omitempty"`
	Text        string          `json:"text,omitempty"`
	CookingTime int             `json:"cooking_time,omitempty"`
}

// Validate performs presence checks only; the service owns real validation.
func (in RecipeInput) Validate() error {
	switch {
	case in.Name == "":
		return &FieldError{Field: "name", Reason: "required"}
	case len(in.Ingredients) == 0:
		return &FieldError{Field: "ingredients", Reason: "required"}
	case in.CookingTime <= 0:
		return &FieldError{Field: "cooking_time", Reason: "required"}
	}
	return nil
}

// ShoppingDocument is the exported shopping list file.
type ShoppingDocument struct {
	Filename    string
	ContentType string
	Body        []byte
}
