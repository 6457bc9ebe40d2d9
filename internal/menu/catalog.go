package menu

import "drivethru/internal/models"

// DefaultCatalog returns the standard drive-thru menu board. The slice is
// freshly allocated on every call.
func DefaultCatalog() []models.CatalogItem {
	return []models.CatalogItem{
		// Tacos
		{
			Name:           "Crunchy Taco",
			Category:       models.CategoryTacos,
			Price:          1.49,
			Description:    "A crunchy corn shell filled with seasoned beef, lettuce, and cheese",
			Calories:       170,
			Customizations: []string{"no lettuce", "extra cheese", "add sour cream", "no cheese"},
			Aliases:        []string{"hard taco", "regular taco", "crispy taco", "crunchy"},
			Tags:           []string{"crunchy", "beef", "cheap", "classic", "corn shell"},
		},
		{
			Name:           "Soft Taco",
			Category:       models.CategoryTacos,
			Price:          1.49,
			Description:    "A warm flour tortilla filled with seasoned beef, lettuce, and cheese",
			Calories:       180,
			Customizations: []string{"no lettuce", "extra cheese", "add tomatoes", "no cheese"},
			Aliases:        []string{"flour taco", "regular soft taco"},
			Tags:           []string{"soft", "beef", "cheap", "classic", "flour tortilla"},
		},
		{
			Name:           "Crunchy Taco Supreme",
			Category:       models.CategoryTacos,
			Price:          1.99,
			Description:    "Crunchy taco with seasoned beef, lettuce, cheese, tomatoes, and sour cream",
			Calories:       190,
			Customizations: []string{"no sour cream", "no tomatoes", "extra cheese"},
			Aliases:        []string{"supreme taco", "deluxe taco", "loaded taco"},
			Tags:           []string{"crunchy", "beef", "supreme", "sour cream", "tomatoes", "upgraded"},
		},
		{
			Name:           "Doritos Locos Tacos",
			Category:       models.CategoryTacos,
			Price:          2.19,
			Description:    "Taco with a Nacho Cheese Doritos shell",
			Calories:       170,
			Customizations: []string{"cool ranch", "fiery", "nacho cheese"},
			Aliases:        []string{"DLT", "dorito taco", "nacho taco", "doritos taco"},
			Tags:           []string{"crunchy", "beef", "doritos", "nacho", "specialty", "cheese shell", "spicy option"},
		},

		// Burritos
		{
			Name:           "Bean Burrito",
			Category:       models.CategoryBurritos,
			Price:          1.29,
			Description:    "Warm flour tortilla filled with refried beans, cheese, and onions",
			Calories:       350,
			Customizations: []string{"no onions", "add rice", "extra cheese", "add jalapenos"},
			Aliases:        []string{"beans burrito", "vegetarian burrito", "veggie burrito"},
			Tags:           []string{"vegetarian", "beans", "cheapest", "no meat", "budget", "value"},
		},
		{
			Name:           "Beef Burrito",
			Category:       models.CategoryBurritos,
			Price:          1.79,
			Description:    "Seasoned beef, cheese, and onions wrapped in a flour tortilla",
			Calories:       430,
			Customizations: []string{"no onions", "add lettuce", "extra cheese"},
			Aliases:        []string{"ground beef burrito", "meat burrito"},
			Tags:           []string{"beef", "cheap", "simple", "classic"},
		},
		{
			Name:           "Beefy 5-Layer Burrito",
			Category:       models.CategoryBurritos,
			Price:          2.49,
			Description:    "Beef, cheese, beans, sour cream, and nacho cheese wrapped in two flour tortillas",
			Calories:       490,
			Customizations: []string{"no sour cream", "no beans", "extra beef"},
			Aliases:        []string{"five layer", "5 layer", "5-layer"},
			Tags:           []string{"beef", "hearty", "filling", "multiple layers", "sour cream"},
		},
		{
			Name:           "Crunchwrap Supreme",
			Category:       models.CategoryBurritos,
			Price:          4.49,
			Description:    "Hexagonal tortilla with beef, nacho cheese, lettuce, tomatoes, sour cream, and tostada",
			Calories:       530,
			Customizations: []string{"no sour cream", "no tomatoes", "add jalapenos"},
			Aliases:        []string{"crunch wrap", "crunchy wrap", "hexagon"},
			Tags:           []string{"crunchy", "beef", "premium", "signature", "tostada", "hexagonal"},
		},

		// Drinks
		{
			Name:           "Soft Drink",
			Category:       models.CategoryDrinks,
			Price:          2.29,
			Description:    "Fountain drink - Pepsi, Mountain Dew, Sierra Mist, etc.",
			Calories:       150,
			Customizations: []string{"small", "medium", "large", "no ice", "light ice"},
			Aliases:        []string{"soda", "coke", "pepsi", "fountain drink", "pop", "cola"},
			Tags:           []string{"beverage", "fountain", "carbonated", "refreshing"},
		},
		{
			Name:           "Baja Blast",
			Category:       models.CategoryDrinks,
			Price:          2.29,
			Description:    "Exclusive Mountain Dew tropical lime flavor",
			Calories:       170,
			Customizations: []string{"small", "medium", "large", "no ice"},
			Aliases:        []string{"baja", "blast", "blue drink", "mountain dew baja", "tropical"},
			Tags:           []string{"beverage", "exclusive", "tropical", "lime", "signature drink"},
		},
		{
			Name:           "Baja Blast Freeze",
			Category:       models.CategoryDrinks,
			Price:          2.69,
			Description:    "Frozen Baja Blast slush drink",
			Calories:       190,
			Customizations: []string{"regular", "large"},
			Aliases:        []string{"frozen baja", "baja slush", "blue freeze", "slushie", "frozen drink"},
			Tags:           []string{"beverage", "frozen", "slush", "cold", "dessert drink"},
		},

		// Sides
		{
			Name:           "Nachos & Cheese",
			Category:       models.CategorySides,
			Price:          1.39,
			Description:    "Tortilla chips with warm nacho cheese sauce",
			Calories:       220,
			Customizations: []string{"extra cheese", "add jalapenos", "add beans"},
			Aliases:        []string{"chips and cheese", "nachos", "cheese nachos", "chips"},
			Tags:           []string{"crunchy", "cheese", "cheap", "snack", "shareable", "vegetarian"},
		},
		{
			Name:           "Nacho Fries",
			Category:       models.CategorySides,
			Price:          1.49,
			Description:    "Seasoned fries with nacho cheese dipping sauce",
			Calories:       320,
			Customizations: []string{"extra seasoning", "no seasoning", "extra cheese sauce"},
			Aliases:        []string{"fries", "french fries", "seasoned fries"},
			Tags:           []string{"fries", "cheese", "seasoned", "limited time", "popular"},
		},
		{
			Name:           "Cinnamon Twists",
			Category:       models.CategorySides,
			Price:          1.00,
			Description:    "Crispy puffed corn twists dusted with cinnamon sugar",
			Calories:       170,
			Customizations: []string{"extra cinnamon"},
			Aliases:        []string{"dessert", "sweet", "twists", "cinnamon", "churros"},
			Tags:           []string{"sweet", "dessert", "cheapest", "cinnamon", "crispy", "vegetarian"},
		},

		// Combos
		{
			Name:           "Cravings Box",
			Category:       models.CategoryCombos,
			Price:          5.00,
			Description:    "Chalupa Supreme, 5-Layer Burrito, Taco, Cinnamon Twists, and drink",
			Calories:       1290,
			Customizations: []string{"swap items", "upgrade drink"},
			Aliases:        []string{"box", "combo box", "meal deal", "5 dollar box", "$5 box"},
			Tags:           []string{"combo", "value", "deal", "complete meal", "variety", "best value"},
		},
		{
			Name:           "Combo Meal",
			Category:       models.CategoryCombos,
			Price:          7.99,
			Description:    "Any main item with a drink and side",
			Calories:       800,
			Customizations: []string{"choose main", "choose side", "choose drink"},
			Aliases:        []string{"meal", "combo", "number 1", "number 2"},
			Tags:           []string{"combo", "customizable", "meal", "drink included"},
		},
	}
}
