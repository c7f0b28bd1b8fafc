package jobs

// Bootstrap builds the process-wide registry in one explicit call. Every
// routable job is named here; nothing registers itself on import.
func Bootstrap(questionImport HandlerFunc) (*Registry, error) {
	reg := NewRegistry()
	if err := reg.Register(KeyQuestionImport, questionImport); err != nil {
		return nil, err
	}
	return reg, nil
}
