package lef

// layerSection is one LAYER ... END block of a technology LEF.
// Example:
//
//	LAYER met1
//	  TYPE ROUTING ;
//	  DIRECTION HORIZONTAL ;
//	  PITCH 0.34 ;
//	  OFFSET 0.17 ;
//	  WIDTH 0.14 ;
//	END met1
type layerSection struct {
	Name    string       `parser:"'LAYER' @Ident"`
	Stmts   []*layerStmt `parser:"@@*"`
	EndName string       `parser:"'END' @Ident"`
}

// layerStmt is one semicolon-terminated statement inside a layer section.
// Statements are free-form keyword/value token runs; the first token is the
// statement keyword.
type layerStmt struct {
	Tokens []string `parser:"@(~('END' | Semicolon))+ Semicolon"`
}

// Keyword returns the statement's leading keyword, or "" for an empty
// statement.
func (s *layerStmt) Keyword() string {
	if len(s.Tokens) == 0 {
		return ""
	}
	return s.Tokens[0]
}

// Values returns the tokens following the keyword.
func (s *layerStmt) Values() []string {
	if len(s.Tokens) < 2 {
		return nil
	}
	return s.Tokens[1:]
}
