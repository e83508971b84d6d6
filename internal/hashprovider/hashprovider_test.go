package hashprovider

import "testing"

func TestByName(t *testing.T) {
	cases := []struct {
		name         string
		wantProvider string
		wantBytes    uint32
	}{
		{"xxh3", "xxh3", 8},
		{"", "xxh3", 8},
		{"murmur3", "murmur3", 4},
	}
	for _, c := range cases {
		p, err := ByName(c.name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", c.name, err)
		}
		if p.Name() != c.wantProvider {
			t.Errorf("ByName(%q).Name() = %q, want %q", c.name, p.Name(), c.wantProvider)
		}
		if p.BytesPerHash() != c.wantBytes {
			t.Errorf("ByName(%q).BytesPerHash() = %d, want %d", c.name, p.BytesPerHash(), c.wantBytes)
		}
	}

	if _, err := ByName("sha256"); err == nil {
		t.Errorf("ByName(%q): got nil error, want error", "sha256")
	}
}

func TestProvidersAreDeterministic(t *testing.T) {
	for _, p := range []Provider{XXH3{}, Murmur3{}} {
		a := p.Hash([]byte("the quick brown fox"), 42)
		b := p.Hash([]byte("the quick brown fox"), 42)
		if a != b {
			t.Errorf("%s: Hash is not deterministic: %d != %d", p.Name(), a, b)
		}
	}
}

func TestProvidersVaryBySeedAndFeature(t *testing.T) {
	for _, p := range []Provider{XXH3{}, Murmur3{}} {
		h1 := p.Hash([]byte("feature-a"), 0)
		h2 := p.Hash([]byte("feature-a"), 1)
		if h1 == h2 {
			t.Errorf("%s: Hash(feature, 0) == Hash(feature, 1), want different seeds to differ", p.Name())
		}
		h3 := p.Hash([]byte("feature-b"), 0)
		if h1 == h3 {
			t.Errorf("%s: Hash(a, seed) == Hash(b, seed), want different features to differ", p.Name())
		}
	}
}

func TestMurmur3FitsIn32Bits(t *testing.T) {
	m := Murmur3{}
	for seed := uint64(0); seed < 100; seed++ {
		h := m.Hash([]byte("x"), seed)
		if h > 0xFFFFFFFF {
			t.Fatalf("Murmur3.Hash returned %#x, does not fit in 32 bits", h)
		}
	}
}
