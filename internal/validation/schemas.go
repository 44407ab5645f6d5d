package validation

// Field names shared by the auth schemas and request models.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldUsername     = "username"
	FieldFullName     = "fullName"
	FieldTimezone     = "timezone"
	FieldAgreeToTerms = "agreeToTerms"
)

// RegisterSchema validates account creation. minScore > 0 adds a zxcvbn strength check.
func RegisterSchema(minScore int) Schema {
	schema := Schema{
		{Field: FieldEmail, Kind: KindRequired},
		{Field: FieldEmail, Kind: KindEmail},

		{Field: FieldPassword, Kind: KindRequired},
		{Field: FieldPassword, Kind: KindPassword},
		{Field: FieldPassword, Kind: KindNotCommonPassword},
	}
	if minScore > 0 {
		schema = append(schema, Rule{
			Field:  FieldPassword,
			Kind:   KindStrength,
			Params: Params{Min: minScore, Related: []string{FieldEmail, FieldUsername, FieldFullName}},
		})
	}

	return append(schema,
		Rule{Field: FieldUsername, Kind: KindTrim},
		Rule{Field: FieldUsername, Kind: KindOptional},
		Rule{Field: FieldUsername, Kind: KindLength, Params: Params{Min: 3, Max: 30}},
		Rule{Field: FieldUsername, Kind: KindAlphanumeric},

		Rule{Field: FieldFullName, Kind: KindTrim},
		Rule{Field: FieldFullName, Kind: KindOptional},
		Rule{Field: FieldFullName, Kind: KindLength, Params: Params{Max: 100}},

		Rule{Field: FieldTimezone, Kind: KindTrim},
		Rule{Field: FieldTimezone, Kind: KindOptional},
		Rule{Field: FieldTimezone, Kind: KindTimezone},

		Rule{Field: FieldAgreeToTerms, Kind: KindAccepted},
	)
}

// LoginSchema checks only address syntax and presence of a password so that
// passwords created under an older policy still authenticate.
func LoginSchema() Schema {
	return Schema{
		{Field: FieldEmail, Kind: KindRequired},
		{Field: FieldEmail, Kind: KindEmail},
		{Field: FieldPassword, Kind: KindRequired, Params: Params{Message: "Password is required"}},
	}
}
