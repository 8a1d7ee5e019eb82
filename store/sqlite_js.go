//go:build js

package store

import "errors"

func openSQLite(string) (Store, error) {
	return nil, errors.New("sqlite store is not available in js builds")
}
