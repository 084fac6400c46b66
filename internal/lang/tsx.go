package lang

func init() {
	Register(typedEcmaProfile(TSX, []string{".tsx"}))
}
