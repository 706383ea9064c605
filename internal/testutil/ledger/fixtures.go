package ledger

// Fixture represents a predefined set of ledger rows for testing.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Description returns a detailed description of the fixture's purpose.
	Description() string

	// Rows returns the ledger rows included in this fixture.
	Rows() []Row

	// Version returns the fixture version for evolution support.
	Version() int
}

// fixture implements the Fixture interface.
type fixture struct {
	name        string
	description string
	rows        []Row
	version     int
}

func (f *fixture) Name() string        { return f.name }
func (f *fixture) Description() string { return f.description }
func (f *fixture) Rows() []Row         { return append([]Row(nil), f.rows...) }
func (f *fixture) Version() int        { return f.version }

// Predefined fixtures for common test scenarios.
var (
	// FixtureNovember2021 holds three purchases on two cards in early November 2021.
	FixtureNovember2021 = &fixture{
		name:        "November 2021",
		description: "Three outflows on cards *4556 and *7197 between 01.11.2021 and 03.11.2021",
		version:     1,
		rows: []Row{
			{Date: "01.11.2021", Card: "*4556", Status: "OK", Amount: "-228.0", Currency: "RUB", Category: "Супермаркеты", MCC: "5411", Description: "Колхоз"},
			{Date: "02.11.2021", Card: "*4556", Status: "OK", Amount: "-110.0", Currency: "RUB", Category: "Фастфуд", MCC: "5814", Description: "Mouse Tail"},
			{Date: "03.11.2021", Card: "*7197", Status: "OK", Amount: "-525.0", Currency: "RUB", Category: "Одежда и обувь", MCC: "5651", Description: "WILDBERRIES"},
		},
	}

	// FixtureTransfers mixes top-ups and transfers with a purchase, all on 05.11.2021.
	FixtureTransfers = &fixture{
		name:        "Transfers",
		description: "A top-up, an outgoing transfer and a purchase on card *4556",
		version:     1,
		rows: []Row{
			{Date: "05.11.2021", Card: "*4556", Status: "OK", Amount: "5000.0", Currency: "RUB", Category: "Пополнения", Description: "Зарплата"},
			{Date: "05.11.2021", Card: "*4556", Status: "OK", Amount: "-1500.0", Currency: "RUB", Category: "Переводы", Description: "Иван И."},
			{Date: "05.11.2021", Card: "*4556", Status: "OK", Amount: "-350.0", Currency: "RUB", Category: "Фастфуд", MCC: "5814", Description: "Шаурма"},
		},
	}
)

// AllFixtures returns all available fixtures.
func AllFixtures() []Fixture {
	return []Fixture{
		FixtureNovember2021,
		FixtureTransfers,
	}
}
