package roomstore

// Language identifies the editing mode of a room's document.
type Language string

const (
	LangJavascript Language = "javascript"
	LangPython     Language = "python"
	LangJava       Language = "java"

	DefaultLanguage = LangJavascript
)

var templates = map[Language]string{
	LangJavascript: "// Start coding together!\nconsole.log(\"Hello, world!\");\n",
	LangPython:     "# Start coding together!\nprint(\"Hello, world!\")\n",
	LangJava: "public class Main {\n" +
		"    public static void main(String[] args) {\n" +
		"        System.out.println(\"Hello, world!\");\n" +
		"    }\n" +
		"}\n",
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := templates[l]
	return ok
}

// Template returns the starter document for the language, falling back to
// the default language's starter for unknown values.
func (l Language) Template() string {
	if t, ok := templates[l]; ok {
		return t
	}
	return templates[DefaultLanguage]
}
