package embed_data

import _ "embed"

// ModelDetails holds per-model limits and prices, keyed by lower-case model name.
//
//go:embed model_details.json
var ModelDetails []byte

// Tree-sitter queries, one JSON object per language mapping a tag to a query.

//go:embed tree-sitter/queries/go.json
var GoQuery []byte

//go:embed tree-sitter/queries/python.json
var PythonQuery []byte

//go:embed tree-sitter/queries/javascript.json
var JavascriptQuery []byte

//go:embed tree-sitter/queries/typescript.json
var TypescriptQuery []byte

//go:embed tree-sitter/queries/java.json
var JavaQuery []byte

//go:embed tree-sitter/queries/csharp.json
var CSharpQuery []byte
