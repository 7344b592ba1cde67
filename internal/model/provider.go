package model

// Provider описывает поставщика товаров.
type Provider struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	RegistryDate string `json:"registryDate" yaml:"registryDate"`
	Image        string `json:"image,omitempty" yaml:"image,omitempty"`
}
