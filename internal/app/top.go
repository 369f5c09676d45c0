package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Top prints the upstream's precomputed ranking. Rows are shown as received.
func (a *App) Top(ctx context.Context, opts TopOptions) error {
	if opts.Limit <= 0 {
		return errors.New("--limit must be greater than zero")
	}

	bazaar, err := a.newBazaar()
	if err != nil {
		return err
	}

	rows := bazaar.FetchTop(ctx, opts.Limit)
	if rows == nil {
		fmt.Fprintln(a.Out, "top: no data")
		return nil
	}

	renderTop(a.Out, rows)
	return nil
}

func renderTop(w io.Writer, rows []json.RawMessage) {
	width := len(strconv.Itoa(len(rows)))
	for i, row := range rows {
		var compact bytes.Buffer
		if err := json.Compact(&compact, row); err != nil {
			compact.Reset()
			compact.Write(row)
		}
		fmt.Fprintf(w, "%*d. %s\n", width, i+1, sanitizeInline(compact.String()))
	}
}
