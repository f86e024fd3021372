package lang

func init() {
	Register(&LanguageSpec{
		Language:             JavaScript,
		FileExtensions:       []string{".js", ".jsx", ".mjs", ".cjs"},
		DeclarationNodeTypes: []string{"lexical_declaration", "variable_declaration"},
		ImportNodeTypes:      []string{"import_statement"},
		ExportNodeTypes:      []string{"export_statement"},
	})
}
