package lang

func init() {
	Register(&LanguageSpec{
		Language:             TSX,
		FileExtensions:       []string{".tsx"},
		DeclarationNodeTypes: []string{"lexical_declaration", "variable_declaration"},
		EnumNodeTypes:        []string{"enum_declaration"},
		ImportNodeTypes:      []string{"import_statement"},
		ExportNodeTypes:      []string{"export_statement"},
		TypeAssertions:       true,
	})
}
