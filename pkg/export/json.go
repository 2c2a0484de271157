package export

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// WriteJSON writes the forest as an indented JSON array. An empty forest is
// written as [] rather than null.
func WriteJSON(w io.Writer, forest []model.Snapshot) error {
	if forest == nil {
		forest = []model.Snapshot{}
	}
	data, err := json.MarshalIndent(forest, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
