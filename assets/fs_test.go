package appfs

import (
	"io/fs"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFS_layouts(t *testing.T) {
	files := []string{
		path.Join(PageTemplatesDir, "_base.gohtml"),
		path.Join(EmailTemplatesDir, "_base.txt"),
		path.Join(EmailTemplatesDir, "_base.gohtml"),
		path.Join(MigrationsDir, "00001_init.sql"),
	}
	for _, file := range files {
		_, err := fs.Stat(FS, file)
		assert.NoError(t, err, file)
	}
}
