package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSONOverridesOnlyPresentFields(t *testing.T) {
	path := writeFile(t, `{"voices": 8, "waveform": " square ", "mono": true, "fmax": 440}`)
	s, err := LoadJSON(path, Defaults())
	if err != nil {
		t.Fatal(err)
	}
	def := Defaults()
	if s.Synth.Voices != 8 || s.Synth.Waveform != "square" || s.Synth.Stereo {
		t.Fatalf("overrides not applied: %+v", s.Synth)
	}
	if s.Mapping.FMax != 440 || s.Mapping.FMin != def.Mapping.FMin {
		t.Fatalf("mapping = %+v", s.Mapping)
	}
	if s.Synth.SampleRate != def.Synth.SampleRate || s.Synth.StepMS != def.Synth.StepMS || s.Size != def.Size {
		t.Fatalf("untouched fields changed: %+v", s)
	}
}

func TestLoadJSONErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
	}{
		{"syntax", `{"voices": }`},
		{"sample rate", `{"sample_rate": 0}`},
		{"waveform", `{"waveform": "noise"}`},
		{"fade", `{"fade_ms": -2}`},
		{"size", `{"size": 0}`},
		{"fmin", `{"fmin": -10}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadJSON(writeFile(t, tc.body), Defaults()); err == nil {
				t.Fatalf("expected error for %s", tc.body)
			}
		})
	}
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json"), Defaults()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyFileNil(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
	s := LiveDefaults()
	if err := ApplyFile(&s, nil); err != nil {
		t.Fatal(err)
	}
	if s != LiveDefaults() {
		t.Fatalf("nil file changed settings")
	}
}
