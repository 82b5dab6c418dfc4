package fragment

import (
	"errors"
	"fmt"
	"io/fs"
	stdpath "path"

	"github.com/zjrosen/implbridge/internal/implementors"
	"github.com/zjrosen/implbridge/internal/log"
)

// Page is one decoded fragment.
type Page struct {
	Trait string
	Path  string
	Table implementors.Table
}

// Scan decodes every fragment under root/implementors in fsys, in lexical
// path order. Files that fail to decode are skipped and reported in the
// returned error; the successfully decoded pages are still returned. A missing
// implementors directory yields no pages and no error.
func Scan(fsys fs.FS, root string) ([]Page, error) {
	dir := stdpath.Join(root, Dir)
	if _, err := fs.Stat(fsys, dir); errors.Is(err, fs.ErrNotExist) {
		log.Warn(log.CatFragment, "No implementors directory", "dir", dir)
		return nil, nil
	}

	var (
		pages []Page
		errs  []error
	)
	walkErr := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsFragmentPath(p) {
			return nil
		}

		page, err := ReadPage(fsys, p)
		if err != nil {
			log.ErrorErr(log.CatFragment, "Skipping unreadable fragment", err, "path", p)
			errs = append(errs, err)
			return nil
		}
		pages = append(pages, page)
		return nil
	})
	if walkErr != nil {
		return pages, fmt.Errorf("walking %s: %w", dir, walkErr)
	}

	log.Debug(log.CatFragment, "Scanned fragments", "dir", dir, "pages", len(pages), "failed", len(errs))
	return pages, errors.Join(errs...)
}

// ReadPage decodes the fragment at p in fsys.
func ReadPage(fsys fs.FS, p string) (Page, error) {
	trait, err := TraitFromPath(p)
	if err != nil {
		return Page{}, err
	}
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return Page{}, fmt.Errorf("read %s: %w", p, err)
	}
	table, err := DecodeBytes(data)
	if err != nil {
		return Page{}, fmt.Errorf("decode %s: %w", p, err)
	}
	return Page{Trait: trait, Path: p, Table: table}, nil
}
