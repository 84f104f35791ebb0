package domain

// SeedData is what a fresh store starts with.
type SeedData struct {
	Project    ProjectInput
	Accounts   []AccountInput
	Categories []string
}

// DefaultSeed is the data Seed writes into an empty store.
func DefaultSeed() SeedData {
	return SeedData{
		Project: ProjectInput{
			Name:             "Proyecto Principal",
			Description:      "Proyecto creado automáticamente",
			Currency:         DefaultCurrency,
			PrincipalAccount: "Caja",
		},
		Accounts: []AccountInput{
			{Name: "Caja", Type: "Efectivo"},
			{Name: "Banco", Type: "Banco"},
		},
		Categories: []string{
			RentalCategory,
			"Combustible",
			"Mantenimiento",
			"Salarios",
			"Repuestos",
			"Otros Gastos",
		},
	}
}

// RentalCategory is the category rental income is booked under.
const RentalCategory = "Alquiler"
