package export

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hammamikhairi/recipebox/internal/domain"
)

func recipe(ings ...domain.IngredientAmount) domain.Recipe {
	return domain.Recipe{Ingredients: ings}
}

func TestAggregate(t *testing.T) {
	cart := []domain.Recipe{
		recipe(
			domain.IngredientAmount{Name: "garlic", MeasurementUnit: "cloves", Amount: 4},
			domain.IngredientAmount{Name: "spaghetti", MeasurementUnit: "g", Amount: 250},
		),
		recipe(
			domain.IngredientAmount{Name: "garlic", MeasurementUnit: "cloves", Amount: 3},
			domain.IngredientAmount{Name: "garlic", MeasurementUnit: "g", Amount: 10},
		),
	}

	want := []Line{
		{Name: "garlic", Unit: "cloves", Amount: 7},
		{Name: "garlic", Unit: "g", Amount: 10},
		{Name: "spaghetti", Unit: "g", Amount: 250},
	}
	if diff := cmp.Diff(want, Aggregate(cart)); diff != "" {
		t.Fatalf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument(t *testing.T) {
	doc := Document([]domain.Recipe{recipe(
		domain.IngredientAmount{Name: "rice", MeasurementUnit: "g", Amount: 100},
	)})

	if doc.Filename != Filename {
		t.Fatalf("expected filename %q, got %q", Filename, doc.Filename)
	}
	want := "Shopping List\nrice - 100 g\n"
	if got := string(doc.Body); got != want {
		t.Fatalf("expected body %q, got %q", want, got)
	}
}

func TestDocumentEmptyCart(t *testing.T) {
	doc := Document(nil)
	if got := string(doc.Body); got != "Shopping List\n" {
		t.Fatalf("expected header only, got %q", got)
	}
}
