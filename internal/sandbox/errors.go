package sandbox

const (
	CodeParse       = "E_PARSE"
	CodeEmptyResult = "E_EMPTY_RESULT"
	CodeIO          = "E_IO"
)
