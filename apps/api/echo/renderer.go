package echoapi

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	appfs "github.com/trezcool/darasa/assets"
	"github.com/trezcool/darasa/core/user"
)

var baseTemplate = "_base.gohtml"

// pageRenderer renders the pages of the embedded FS, each one inside the base layout.
type pageRenderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*pageRenderer)(nil)

func newPageRenderer() *pageRenderer {
	files, err := fs.Glob(appfs.FS, path.Join(appfs.PageTemplatesDir, "*.gohtml"))
	if err != nil {
		panic(err)
	}
	base := path.Join(appfs.PageTemplatesDir, baseTemplate)

	r := &pageRenderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := path.Base(file)
		if name == baseTemplate {
			continue
		}
		r.pages[name] = template.Must(template.ParseFS(appfs.FS, base, file))
	}
	return r
}

func (r *pageRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("page template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, baseTemplate, data)
}

type pageData struct {
	User     *user.User
	CSRF     string
	Messages []flashMessage
	Data     interface{}
}

// renderPage renders the page `name` with the pending flash messages followed by msgs.
func renderPage(ctx echo.Context, code int, name string, data interface{}, msgs ...flashMessage) error {
	if data == nil {
		data = echo.Map{}
	}
	pd := pageData{
		Messages: append(popFlash(ctx), msgs...),
		Data:     data,
	}
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		pd.User = &usr
	}
	if token, ok := ctx.Get(csrfContextKey).(string); ok {
		pd.CSRF = token
	}
	return ctx.Render(code, name, pd)
}

func renderError(ctx echo.Context, code int, message interface{}) error {
	msg, ok := message.(string)
	if !ok {
		msg = http.StatusText(code)
	}
	return renderPage(ctx, code, "error.gohtml", echo.Map{"Code": code, "Message": msg})
}

func fmtFieldError(fld, msg string) string {
	return fmt.Sprintf("%s: %s", fld, msg)
}
