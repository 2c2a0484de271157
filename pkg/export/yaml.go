package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// WriteYAML writes the forest as a YAML sequence.
func WriteYAML(w io.Writer, forest []model.Snapshot) error {
	if forest == nil {
		forest = []model.Snapshot{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(forest); err != nil {
		return err
	}
	return enc.Close()
}
