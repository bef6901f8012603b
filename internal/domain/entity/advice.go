package entity

// Advice содержит рекомендацию по лечению для найденного класса.
type Advice struct {
	Label     string
	Treatment string
}
