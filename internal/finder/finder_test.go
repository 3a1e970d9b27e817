package finder

import "testing"

func TestPrefilter(t *testing.T) {
	p := NewPrefilter([]string{"var_dump", "dd"})

	tests := []struct {
		src  string
		want bool
	}{
		{"<?php var_dump($x);", true},
		{"<?php VAR_DUMP($x);", true},
		{"<?php \\dd($x);", true},
		{"<?php dd ($x);", true},
		{"<?php $odd = 1;", false},
		{"<?php add($x);", false},
		{"<?php var_dumper($x);", false},
		{"<?php // nothing here", false},
	}

	for _, tt := range tests {
		if got := p.MayContain([]byte(tt.src)); got != tt.want {
			t.Errorf("MayContain(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestPrefilter_Empty(t *testing.T) {
	if NewPrefilter(nil).MayContain([]byte("anything")) {
		t.Error("empty prefilter should never match")
	}
}

func TestGlobalName(t *testing.T) {
	tests := []struct {
		text       string
		wantName   string
		wantPrefix int
		wantOK     bool
	}{
		{"var_dump", "var_dump", 0, true},
		{`\var_dump`, "var_dump", 1, true},
		{`Foo\var_dump`, "", 0, false},
		{`\Foo\var_dump`, "", 0, false},
		{`\`, "", 0, false},
	}

	for _, tt := range tests {
		name, prefix, ok := globalName(tt.text)
		if name != tt.wantName || prefix != tt.wantPrefix || ok != tt.wantOK {
			t.Errorf("globalName(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tt.text, name, prefix, ok, tt.wantName, tt.wantPrefix, tt.wantOK)
		}
	}
}

func TestFacadeAliases_Resolve(t *testing.T) {
	f := NewFacadeAliases(map[string]string{"DB": `Illuminate\Support\Facades\DB`})

	if class, ok := f.Resolve("db"); !ok || class != `Illuminate\Support\Facades\DB` {
		t.Errorf("Resolve(db) = (%q, %v)", class, ok)
	}
	if _, ok := f.Resolve("Cache"); ok {
		t.Error("Resolve(Cache) should not be known")
	}
}
