package domain

// Product is an inventory item (produtos_estoque).
type Product struct {
	ID        int64   `json:"id"`
	Code      string  `json:"codigo"`
	Name      string  `json:"nome"`
	Category  string  `json:"categoria"`
	Quantity  int     `json:"quantidade"`
	MinStock  int     `json:"estoqueMinimo"`
	CostPrice float64 `json:"precoCusto"`
	SalePrice float64 `json:"precoVenda"`
	Supplier  string  `json:"fornecedor,omitempty"`
	Location  string  `json:"localizacao,omitempty"`
}

// LowStock reports whether the quantity on hand is below the configured minimum.
func (p Product) LowStock() bool {
	return p.Quantity < p.MinStock
}

// CriticalStock is true once the quantity reaches the minimum, one unit
// earlier than LowStock.
func (p Product) CriticalStock() bool {
	return p.Quantity <= p.MinStock
}
