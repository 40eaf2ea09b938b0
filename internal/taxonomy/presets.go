package taxonomy

const (
	PresetPersonal  = "personal"
	PresetHousehold = "household"
)

// Personal is the granular personal-finance taxonomy with theme grouping.
func Personal() Definition {
	return Definition{
		Name: PresetPersonal,
		Categories: []string{
			"Bike", "Auto/Cab", "Public transport", "Groceries", "Eating out", "Party",
			"Household supplies", "Education", "Gift", "Cinema", "Entertainment", "Liquor",
			"Rent/Maintenance", "Furniture", "Services", "Electricity", "Internet", "Investment",
			"Insurance", "Medical expenses", "Flights", "Travel", "Clothes", "Games/Sports",
			"Gas", "Phone", "Miscellaneous",
		},
		PaymentMethods:        defaultPaymentMethods(),
		CreditCard:            "Credit Card",
		FallbackPaymentMethod: "Other",
		Themes: map[string][]string{
			"Cost of living": {
				"Bike", "Public transport", "Groceries", "Household supplies", "Rent/Maintenance",
				"Furniture", "Services", "Electricity", "Internet", "Insurance", "Medical expenses",
				"Gas", "Phone",
			},
			"Going out": {
				"Auto/Cab", "Eating out", "Party", "Cinema", "Entertainment", "Liquor", "Travel",
				"Games/Sports",
			},
			"Incidentals": {"Education", "Gift", "Investment", "Flights", "Clothes"},
		},
	}
}

// Household is the general-purpose household taxonomy. It defines no
// themes, so every category reports as "Other".
func Household() Definition {
	return Definition{
		Name: PresetHousehold,
		Categories: []string{
			"Housing", "Utilities", "Groceries", "Dining Out", "Transportation", "Healthcare",
			"Entertainment", "Shopping", "Personal Care", "Education", "Travel",
			"Gifts & Donations", "Insurance", "Investments", "Debt Payments", "Miscellaneous",
		},
		PaymentMethods:        defaultPaymentMethods(),
		CreditCard:            "Credit Card",
		FallbackPaymentMethod: "Other",
	}
}

func defaultPaymentMethods() []string {
	return []string{"Cash", "UPI", "Debit Card", "Credit Card", "Net Banking", "Other"}
}
