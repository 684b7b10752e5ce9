package mutation

// Field names the character field a mutation targets.
type Field string

const (
	FieldName      Field = "name"
	FieldIcon      Field = "icon"
	FieldColor     Field = "color"
	FieldVisible   Field = "visible"
	FieldStatValue Field = "statValue"
	FieldStatMax   Field = "statMax"
)

// Mutation is a single user edit. StatName is only read by the stat fields.
type Mutation struct {
	Field    Field  `json:"field"`
	StatName string `json:"stat_name,omitempty"`
	Value    any    `json:"value"`
}
