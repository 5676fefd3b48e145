//go:build ignore
// +build ignore

package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"text/template"
)

// Field represents a single field in a packet struct
type Field struct {
	Name      string // The Struct field name (e.g., "ProtocolVersion")
	FieldType string // The high-level type (e.g., "VarInt", "PrefixedArray", "Optional")
	WriteFn   string
	ReadFn    string
}

// GeneratedStruct represents a struct found in the source code marked for generation.
// Wire ids are not generated; they live in the version registry.
type GeneratedStruct struct {
	Name              string
	Fields            []Field
	GenRead, GenWrite bool
}

type File struct {
	Name    string
	Structs []GeneratedStruct
}

func main() {
	if len(os.Args) < 2 {
		// Default to current directory if no arg provided, or panic as per original requirement
		fmt.Println("Usage: go run gen_packet_codec.go -- path/to/dir")
		os.Exit(1)
	}

	targetDir := os.Args[len(os.Args)-1] // Take the last argument as the directory
	fset := token.NewFileSet()
	var parsedFiles []File
	var pkgName string

	filePaths, _ := filepath.Glob(filepath.Join(targetDir, "*.go"))
	sort.Strings(filePaths)

	for _, filePath := range filePaths {
		// Skip generated files to avoid double parsing
		base := filepath.Base(filePath)
		if strings.HasPrefix(base, "zz_generated") || strings.HasSuffix(base, "_test.go") {
			continue
		}

		node, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
		if err != nil {
			panic(err)
		}

		if pkgName == "" {
			pkgName = node.Name.Name
		}

		var fileStructs []GeneratedStruct

		// Walk through top-level declarations
		for _, decl := range node.Decls {
			gen, ok := decl.(*ast.GenDecl)

			// filter for only type declarations with comments
			if !ok || gen.Tok != token.TYPE || gen.Doc == nil {
				continue
			}

			// Check for @gen marker and parse options
			var isGen bool
			var genRead, genWrite bool

			// Iterate through comments to find @gen line
			for _, comment := range gen.Doc.List {
				text := comment.Text
				// Check for options like @gen:r,w
				if strings.Contains(text, "@gen:") {
					isGen = true
					// Parse options
					parts := strings.Split(text, "@gen:")
					if len(parts) > 1 {
						opts := strings.Split(strings.TrimSpace(parts[1]), ",")
						for _, opt := range opts {
							opt = strings.TrimSpace(opt)
							switch opt {
							case "r":
								genRead = true
							case "w":
								genWrite = true
							}
						}
					}
					break
				}
			}

			// filter for types with @gen in doc comment
			if !isGen {
				continue
			}

			for _, spec := range gen.Specs {
				tspec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				// type assertion for struct type
				structType, ok := tspec.Type.(*ast.StructType)
				if !ok {
					continue
				}

				var fields []Field
				for _, field := range structType.Fields.List {
					for _, name := range field.Names {

						// Get the raw tag string
						rawTag := ""
						if field.Tag != nil {
							// The Value is a BasicLit (string literal), strip the quotes
							rawTag = field.Tag.Value
							if len(rawTag) > 1 && rawTag[0] == '`' && rawTag[len(rawTag)-1] == '`' {
								rawTag = rawTag[1 : len(rawTag)-1] // Remove backticks
							}
						}

						// Use reflect.StructTag to parse the raw string
						parsedTag := reflect.StructTag(rawTag)
						fieldType := parsedTag.Get("field")
						writeFn := ""
						readFn := ""

						innerType := parsedTag.Get("inner")
						if len(innerType) > 0 {
							writeFn = "Write" + innerType
							readFn = "Read" + innerType
						} else {
							writeFn = parsedTag.Get("write")
							readFn = parsedTag.Get("read")
						}

						if fieldType == "" {
							continue // Skip fields without the "field" tag
						}

						f := Field{
							Name:      name.Name,
							FieldType: fieldType,
							WriteFn:   writeFn,
							ReadFn:    readFn,
						}

						fields = append(fields, f)
					}
				}

				fileStructs = append(fileStructs, GeneratedStruct{
					Name:     tspec.Name.Name,
					Fields:   fields,
					GenRead:  genRead,
					GenWrite: genWrite,
				})
			}

		}
		if len(fileStructs) > 0 {
			parsedFiles = append(parsedFiles, File{
				Name:    base,
				Structs: fileStructs,
			})
		}
	}

	// Use a template for cleaner code generation logic
	const tmpl = `// Code generated by gen_packet_codec.go; DO NOT EDIT.

package {{.PkgName}}

import (
	"io"
)
{{range .Files}}
// Source: {{.Name}}
{{range .Structs}}
{{- if .GenWrite}}
func (p {{.Name}}) Encode(w io.Writer, _ Version) (err error) {
{{- range .Fields}}
	{{- if .WriteFn}}
	if err = Write{{.FieldType}}(w, p.{{.Name}}, {{.WriteFn}}); err != nil { return }
	{{- else}}
	if err = Write{{.FieldType}}(w, p.{{.Name}}); err != nil { return }
	{{- end}}
{{- end}}
	return
}
{{- end}}
{{if .GenRead}}
func (p *{{.Name}}) Decode(r Reader, _ Version) (err error) {
{{- range .Fields}}
	{{- if .ReadFn}}
	if p.{{.Name}}, err = Read{{.FieldType}}(r, {{.ReadFn}}); err != nil { return }
	{{- else}}
	if p.{{.Name}}, err = Read{{.FieldType}}(r); err != nil { return }
	{{- end}}
{{- end}}
	return nil
}
{{- end}}
{{end}}
{{- end}}
`

	t := template.Must(template.New("code").Parse(tmpl))
	data := struct {
		PkgName string
		Files   []File
	}{
		PkgName: pkgName,
		Files:   parsedFiles,
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic(err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		panic(err)
	}

	// Output next to the source files
	outFile := filepath.Join(targetDir, "zz_generated_codec.go")
	if err := os.WriteFile(outFile, src, 0o644); err != nil {
		panic(err)
	}

	fmt.Printf("Generated %s for package %s\n", outFile, pkgName)
}
