package lsp

// DefaultServerCapabilities returns the capability set this server advertises.
func DefaultServerCapabilities() ServerCapabilities {
	return ServerCapabilities{
		TextDocumentSync: TextDocumentSyncOptions{
			OpenClose: true,
			Change:    TextDocumentSyncKindIncremental,
			Save:      true,
		},
		HoverProvider:      true,
		DefinitionProvider: true,
		ReferencesProvider: true,
	}
}
