package domain

// Product: 产品主数据，加载后不再修改
type Product struct {
	ProductID   string `json:"productId"`
	Name        string `json:"productName"`
	Description string `json:"productDescription"`
}
