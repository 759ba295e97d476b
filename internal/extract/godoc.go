package extract

import (
	"bytes"
	"context"
	"go/ast"
	"go/doc"
	"go/format"
	"go/parser"
	"go/token"
	"strings"
)

// GoDoc documents a single Go source file: the package comment followed by
// every exported declaration that carries a doc comment. Test files and files
// with nothing documented produce no documentation.
type GoDoc struct{}

func (GoDoc) Extract(ctx context.Context, moduleID string) (string, error) {
	if strings.HasSuffix(moduleID, "_test.go") {
		return "", nil
	}
	src, err := readSource(ctx, moduleID)
	if err != nil {
		return "", err
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, moduleID, src, parser.ParseComments)
	if err != nil {
		return "", err
	}
	pkg, err := doc.NewFromFiles(fset, []*ast.File{file}, file.Name.Name)
	if err != nil {
		return "", err
	}
	return renderPackage(fset, pkg), nil
}

func renderPackage(fset *token.FileSet, pkg *doc.Package) string {
	var body bytes.Buffer
	for _, c := range pkg.Consts {
		writeDecl(&body, fset, pkg, "const", valueNames(c), c.Decl, c.Doc)
	}
	for _, v := range pkg.Vars {
		writeDecl(&body, fset, pkg, "var", valueNames(v), v.Decl, v.Doc)
	}
	for _, f := range pkg.Funcs {
		writeFunc(&body, fset, pkg, f)
	}
	for _, t := range pkg.Types {
		writeDecl(&body, fset, pkg, "type", t.Name, t.Decl, t.Doc)
		for _, c := range t.Consts {
			writeDecl(&body, fset, pkg, "const", valueNames(c), c.Decl, c.Doc)
		}
		for _, v := range t.Vars {
			writeDecl(&body, fset, pkg, "var", valueNames(v), v.Decl, v.Doc)
		}
		for _, f := range t.Funcs {
			writeFunc(&body, fset, pkg, f)
		}
		for _, m := range t.Methods {
			writeFunc(&body, fset, pkg, m)
		}
	}
	if pkg.Doc == "" && body.Len() == 0 {
		return ""
	}

	var out bytes.Buffer
	out.WriteString("# package " + pkg.Name + "\n")
	if pkg.Doc != "" {
		out.WriteByte('\n')
		out.Write(pkg.Markdown(pkg.Doc))
	}
	out.Write(body.Bytes())
	return strings.TrimRight(out.String(), "\n")
}

func writeFunc(w *bytes.Buffer, fset *token.FileSet, pkg *doc.Package, f *doc.Func) {
	if f.Doc == "" {
		return
	}
	decl := *f.Decl
	decl.Body = nil
	decl.Doc = nil
	heading := "func " + f.Name
	if f.Recv != "" {
		heading = "func (" + f.Recv + ") " + f.Name
	}
	writeDecl(w, fset, pkg, "", heading, &decl, f.Doc)
}

func writeDecl(w *bytes.Buffer, fset *token.FileSet, pkg *doc.Package, kind, name string, node ast.Node, text string) {
	if text == "" {
		return
	}
	heading := name
	if kind != "" {
		heading = kind + " " + name
	}
	w.WriteString("\n## " + heading + "\n\n")
	var sig bytes.Buffer
	if err := format.Node(&sig, fset, node); err == nil {
		w.WriteString("```go\n")
		w.Write(sig.Bytes())
		w.WriteString("\n```\n\n")
	}
	w.Write(pkg.Markdown(text))
}

func valueNames(v *doc.Value) string {
	return strings.Join(v.Names, ", ")
}
