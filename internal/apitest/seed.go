package apitest

import (
	"fmt"

	"github.com/hammamikhairi/recipebox/internal/domain"
)

// Seeded accounts. Passwords are stored in clear; this is a test double.
var (
	Chef = SeedUser{
		Profile:  domain.UserProfile{ID: 1, Email: "chef@example.com", Username: "chef", FirstName: "Otto", LastName: "Cook"},
		Password: "alfredo",
	}
	Guest = SeedUser{
		Profile:  domain.UserProfile{ID: 2, Email: "a@b.com", Username: "guest", FirstName: "Gus"},
		Password: "x",
	}
)

// SeedUser is a preloaded account and its password.
type SeedUser struct {
	Profile  domain.UserProfile
	Password string
}

var (
	tagDinner = domain.Tag{ID: 1, Name: "Dinner", Color: "#8775D2", Slug: "dinner"}
	tagQuick  = domain.Tag{ID: 2, Name: "Quick", Color: "#49B64E", Slug: "quick"}
	tagVegan  = domain.Tag{ID: 3, Name: "Vegan", Color: "#E26C2D", Slug: "vegan"}
)

// seed populates the server with two full recipes and enough filler to
// span three list pages.
func (s *Server) seed() {
	for _, u := range []SeedUser{Chef, Guest} {
		s.users[u.Profile.ID] = newAccount(u.Profile, u.Password)
	}
	s.nextUserID = 3

	all := []domain.Recipe{chickenAlfredo(), vegetableStirFry()}
	for i := len(all); i < SeedRecipeCount; i++ {
		all = append(all, filler(i+1))
	}
	for _, r := range all {
		r := r
		s.recipes[r.ID] = &r
	}
	s.nextRecipeID = SeedRecipeCount + 1
	s.log.Debug("apitest: seeded %d recipes", len(all))
}

// SeedRecipeCount is the number of recipes a fresh server holds.
const SeedRecipeCount = 13

func chickenAlfredo() domain.Recipe {
	return domain.Recipe{
		ID:     1,
		Name:   "Chicken Alfredo",
		Author: Chef.Profile,
		Tags:   []domain.Tag{tagDinner},
		Text: "Bring a large pot of salted water to a boil. Season and sear the chicken, " +
			"cook the spaghetti al dente, then build the sauce with garlic, creme fraiche and gruyere. " +
			"Serve immediately: alfredo does not reheat well.",
		CookingTime: 35,
		Image:       "/media/recipes/images/chicken-alfredo.jpg",
		Ingredients: []domain.IngredientAmount{
			{ID: 1, Name: "spaghetti", MeasurementUnit: "g", Amount: 250},
			{ID: 2, Name: "chicken breast", MeasurementUnit: "pcs", Amount: 2},
			{ID: 3, Name: "creme fraiche", MeasurementUnit: "ml", Amount: 240},
			{ID: 4, Name: "gruyere cheese", MeasurementUnit: "g", Amount: 100},
			{ID: 5, Name: "garlic", MeasurementUnit: "cloves", Amount: 4},
			{ID: 6, Name: "olive oil", MeasurementUnit: "tbsp", Amount: 1},
		},
	}
}

func vegetableStirFry() domain.Recipe {
	return domain.Recipe{
		ID:     2,
		Name:   "Vegetable Stir Fry",
		Author: Guest.Profile,
		Tags:   []domain.Tag{tagQuick, tagVegan},
		Text: "Prep every vegetable before the pan goes on. Heat the wok until it smokes, " +
			"stir-fry broccoli and carrot first, then pepper and snap peas, finish with garlic, ginger and the sauce.",
		CookingTime: 15,
		Image:       "/media/recipes/images/stir-fry.jpg",
		Ingredients: []domain.IngredientAmount{
			{ID: 7, Name: "bell pepper", MeasurementUnit: "pcs", Amount: 1},
			{ID: 8, Name: "broccoli florets", MeasurementUnit: "g", Amount: 200},
			{ID: 5, Name: "garlic", MeasurementUnit: "cloves", Amount: 3},
			{ID: 9, Name: "soy sauce", MeasurementUnit: "tbsp", Amount: 2},
			{ID: 6, Name: "olive oil", MeasurementUnit: "tbsp", Amount: 2},
		},
	}
}

func filler(id int) domain.Recipe {
	return domain.Recipe{
		ID:          id,
		Name:        fmt.Sprintf("Weeknight dish #%d", id),
		Author:      Chef.Profile,
		Tags:        []domain.Tag{tagQuick},
		Text:        "Cook it.",
		CookingTime: 10 + id,
		Ingredients: []domain.IngredientAmount{
			{ID: 10, Name: "rice", MeasurementUnit: "g", Amount: 100},
		},
	}
}

// ingredientCatalog resolves ingredient ids sent on create/update.
var ingredientCatalog = map[int]domain.IngredientAmount{
	1:  {ID: 1, Name: "spaghetti", MeasurementUnit: "g"},
	2:  {ID: 2, Name: "chicken breast", MeasurementUnit: "pcs"},
	3:  {ID: 3, Name: "creme fraiche", MeasurementUnit: "ml"},
	4:  {ID: 4, Name: "gruyere cheese", MeasurementUnit: "g"},
	5:  {ID: 5, Name: "garlic", MeasurementUnit: "cloves"},
	6:  {ID: 6, Name: "olive oil", MeasurementUnit: "tbsp"},
	7:  {ID: 7, Name: "bell pepper", MeasurementUnit: "pcs"},
	8:  {ID: 8, Name: "broccoli florets", MeasurementUnit: "g"},
	9:  {ID: 9, Name: "soy sauce", MeasurementUnit: "tbsp"},
	10: {ID: 10, Name: "rice", MeasurementUnit: "g"},
}

var tagCatalog = map[int]domain.Tag{
	tagDinner.ID: tagDinner,
	tagQuick.ID:  tagQuick,
	tagVegan.ID:  tagVegan,
}
