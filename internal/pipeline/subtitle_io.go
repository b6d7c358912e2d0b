package pipeline

import (
	"os"

	"github.com/zsunny6658/clipforge/internal/subtitle"
)

func parseSubtitleFile(path string) ([]subtitle.Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return subtitle.Parse(f)
}
