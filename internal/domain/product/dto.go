package product

type ProductResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type FeatureResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Description *string `json:"description,omitempty"`
}

type FeatureFilter struct {
	Product *Product
}
