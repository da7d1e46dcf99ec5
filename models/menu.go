package models

// Categorias fixas do cardápio.
const (
	CategoryPetiscos   = "Petiscos"
	CategoryLanches    = "Lanches"
	CategoryBebidas    = "Bebidas"
	CategoryRefeicoes  = "Refeições"
	CategorySobremesas = "Sobremesas"
)

// Categories lists the menu categories in display order.
var Categories = []string{
	CategoryPetiscos,
	CategoryLanches,
	CategoryBebidas,
	CategoryRefeicoes,
	CategorySobremesas,
}

// CategoryAll is the pseudo-category that matches every item when filtering.
const CategoryAll = "Todos"

func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// MenuItem is one catalog entry. JSON tags follow the persisted catalog
// format, so stored catalogs load unchanged across versions.
type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageUrl    string  `json:"imageUrl,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}
