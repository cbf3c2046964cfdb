package coverage

// Format names a supported coverage report format, as configured by
// qlty.toml's [[coverage]] format field.
type Format string

// Supported coverage report formats.
const (
	FormatLCOV         Format = "lcov"
	FormatCoverprofile Format = "coverprofile"
	FormatCobertura    Format = "cobertura"
	FormatJaCoCo       Format = "jacoco"
	FormatClover       Format = "clover"
	FormatDotCover     Format = "dotcover"
	FormatXccov        Format = "xccov"
	FormatSimpleCov    Format = "simplecov"
	FormatNative       Format = "qlty"
)

// Registry maps a Format to its Parser.
var Registry = map[Format]Parser{
	FormatLCOV:         LCOV{},
	FormatCoverprofile: Coverprofile{},
	FormatCobertura:    Cobertura{},
	FormatJaCoCo:       JaCoCo{},
	FormatClover:       Clover{},
	FormatDotCover:     DotCover{},
	FormatXccov:        Xccov{},
	FormatSimpleCov:    SimpleCov{},
	FormatNative:       Native{},
}

// ParserFor looks up the Parser for a Format, returning ok=false for an
// unrecognized format name.
func ParserFor(format Format) (Parser, bool) {
	p, ok := Registry[format]
	return p, ok
}
