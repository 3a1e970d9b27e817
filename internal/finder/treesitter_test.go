//go:build cgo

package finder

import (
	"context"
	"testing"

	"shift/internal/errors"
)

func findDebugCalls(t *testing.T, src string) []Instance {
	t.Helper()
	instances, err := NewDebugCalls().Find(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	return instances
}

func TestDebugCalls_SingleStatement(t *testing.T) {
	src := "<?php\nfoo(); var_dump(1); bar();\n"
	instances := findDebugCalls(t, src)

	if len(instances) != 1 {
		t.Fatalf("expected 1 instance, got %d: %+v", len(instances), instances)
	}
	inst := instances[0]
	if got := src[inst.Start : inst.End+1]; got != "var_dump(1);" {
		t.Errorf("instance covers %q, want %q", got, "var_dump(1);")
	}
	if inst.Symbol != "var_dump" {
		t.Errorf("Symbol = %q, want var_dump", inst.Symbol)
	}
	if inst.Line != 2 {
		t.Errorf("Line = %d, want 2", inst.Line)
	}
	if inst.Embedded {
		t.Error("top-level statement should not be embedded")
	}
}

func TestDebugCalls_Variants(t *testing.T) {
	src := `<?php
namespace App\Http\Controllers;

class UserController
{
    public function show($user)
    {
        print_r($user);
        $dump = print_r($user, true);
        echo var_export($user, true);
        VAR_DUMP($user);
        \dd($user);
        Foo\dd($user);
        $this->dd($user);
        return view('user', ['user' => $user]);
    }
}
`
	instances := findDebugCalls(t, src)

	want := []struct {
		symbol string
		text   string
		line   int
	}{
		{"print_r", "print_r($user);", 8},
		{"VAR_DUMP", "VAR_DUMP($user);", 11},
		{"dd", `\dd($user);`, 12},
	}
	if len(instances) != len(want) {
		t.Fatalf("expected %d instances, got %d: %+v", len(want), len(instances), instances)
	}
	for i, w := range want {
		inst := instances[i]
		if inst.Symbol != w.symbol {
			t.Errorf("instance %d Symbol = %q, want %q", i, inst.Symbol, w.symbol)
		}
		if got := src[inst.Start : inst.End+1]; got != w.text {
			t.Errorf("instance %d covers %q, want %q", i, got, w.text)
		}
		if inst.Line != w.line {
			t.Errorf("instance %d Line = %d, want %d", i, inst.Line, w.line)
		}
	}
}

func TestDebugCalls_AscendingAndDisjoint(t *testing.T) {
	src := "<?php\ndd(1);\nfoo();\nvar_dump(2);\nprint_r(3);\n"
	instances := findDebugCalls(t, src)

	if len(instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(instances))
	}
	for i := 1; i < len(instances); i++ {
		if instances[i].Start <= instances[i-1].End {
			t.Errorf("instances %d and %d overlap or are out of order: %+v %+v",
				i-1, i, instances[i-1], instances[i])
		}
	}
}

func TestDebugCalls_NestedCallsChooseOuter(t *testing.T) {
	src := "<?php\nvar_dump(print_r($x, true));\ndd(function () { var_dump(1); });\n"
	instances := findDebugCalls(t, src)

	if len(instances) != 2 {
		t.Fatalf("expected 2 outer instances, got %d: %+v", len(instances), instances)
	}
	if instances[0].Symbol != "var_dump" || instances[1].Symbol != "dd" {
		t.Errorf("unexpected symbols: %q, %q", instances[0].Symbol, instances[1].Symbol)
	}
	if got := src[instances[1].Start : instances[1].End+1]; got != "dd(function () { var_dump(1); });" {
		t.Errorf("outer instance covers %q", got)
	}
}

func TestDebugCalls_EmbeddedStatement(t *testing.T) {
	src := "<?php\nif ($debug) dd($x);\nforeach ($xs as $x) { dd($x); }\n"
	instances := findDebugCalls(t, src)

	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d: %+v", len(instances), instances)
	}
	if !instances[0].Embedded {
		t.Error("braceless if body should be embedded")
	}
	if instances[1].Embedded {
		t.Error("statement inside a block should not be embedded")
	}
}

func TestDebugCalls_ParseError(t *testing.T) {
	_, err := NewDebugCalls().Find(context.Background(), []byte("<?php\nfunction ( {\n var_dump(1);\n"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !errors.HasCode(err, errors.ParseError) {
		t.Errorf("expected PARSE_ERROR, got %v", err)
	}
}

func TestDebugCalls_PrefilterSoundness(t *testing.T) {
	sources := []string{
		"<?php\necho 'hello';\n",
		"<?php\n$x = add(1, 2);\n",
		"<?php\nclass A { public function run() { return 1; } }\n",
	}

	d := NewDebugCalls()
	for _, src := range sources {
		if d.MayContain([]byte(src)) {
			t.Errorf("pre-filter unexpectedly matched %q", src)
			continue
		}
		instances, err := d.Find(context.Background(), []byte(src))
		if err != nil {
			t.Fatalf("Find(%q) failed: %v", src, err)
		}
		if len(instances) != 0 {
			t.Errorf("pre-filter rejected %q but Find reported %d instances", src, len(instances))
		}
	}
}

func TestFacadeAliases_Fixture(t *testing.T) {
	src := `<?php

namespace Shift\Cli\Support;

use App;
use Arr;

class ComplexClass
{
    public function imported()
    {
        App::make('app');
        Arr::wrap('arr');
    }

    public function qualified()
    {
        \DB::query('SELECT * FROM users');
        \Str::of('something');
    }

    public function noop()
    {
        SomeApp::make('app');
        Another\Arr::wrap('arr');
    }
}
`
	f := NewFacadeAliases(map[string]string{
		"App": `Illuminate\Support\Facades\App`,
		"Arr": `Illuminate\Support\Arr`,
		"DB":  `Illuminate\Support\Facades\DB`,
		"Str": `Illuminate\Support\Str`,
	})

	if !f.MayContain([]byte(src)) {
		t.Fatal("pre-filter should match the fixture")
	}
	instances, err := f.Find(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	want := []struct {
		symbol string
		line   int
	}{
		{"App", 5},
		{"Arr", 6},
		{"DB", 18},
		{"Str", 19},
	}
	if len(instances) != len(want) {
		t.Fatalf("expected %d instances, got %d: %+v", len(want), len(instances), instances)
	}
	for i, w := range want {
		inst := instances[i]
		if inst.Symbol != w.symbol || inst.Line != w.line {
			t.Errorf("instance %d = %s@%d, want %s@%d", i, inst.Symbol, inst.Line, w.symbol, w.line)
		}
		if got := src[inst.Start : inst.End+1]; got != w.symbol {
			t.Errorf("instance %d covers %q, want %q", i, got, w.symbol)
		}
	}
}

func TestFacadeAliases_GlobalFile(t *testing.T) {
	src := "<?php\nCache::put('k', 1);\nself::boot();\n"
	f := NewFacadeAliases(map[string]string{"Cache": `Illuminate\Support\Facades\Cache`})

	instances, err := f.Find(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(instances) != 1 || instances[0].Symbol != "Cache" {
		t.Fatalf("expected the bare Cache scope in a global file, got %+v", instances)
	}
}

func TestFacadeAliases_ImportedNamesShadowAliases(t *testing.T) {
	f := NewFacadeAliases(map[string]string{
		"Event": `Illuminate\Support\Facades\Event`,
		"Cache": `Illuminate\Support\Facades\Cache`,
		"Log":   `Illuminate\Support\Facades\Log`,
	})

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "qualified import",
			src:  "<?php\n\nuse App\\Models\\Event;\n\nEvent::create(['a' => 1]);\n",
			want: nil,
		},
		{
			name: "aliased import",
			src:  "<?php\n\nuse Foo\\Bar as Cache;\n\nCache::get('k');\nLog::info('x');\n",
			want: []string{"Log"},
		},
		{
			name: "group import",
			src:  "<?php\n\nuse App\\Models\\{Event, User};\n\nEvent::dispatch();\n",
			want: nil,
		},
		{
			name: "case-insensitive binding",
			src:  "<?php\n\nuse App\\Models\\EVENT;\n\nevent::create();\n",
			want: nil,
		},
		{
			name: "global alias import",
			src:  "<?php\n\nuse Event;\n\nEvent::listen('x', 'y');\n",
			want: []string{"Event", "Event"},
		},
		{
			name: "leading separator stays global",
			src:  "<?php\n\nuse App\\Models\\Event;\n\n\\Event::listen('x', 'y');\n",
			want: []string{"Event"},
		},
		{
			name: "function import does not shadow",
			src:  "<?php\n\nuse function App\\Support\\Cache;\n\nCache::get('k');\n",
			want: []string{"Cache"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instances, err := f.Find(context.Background(), []byte(tt.src))
			if err != nil {
				t.Fatalf("Find failed: %v", err)
			}
			if len(instances) != len(tt.want) {
				t.Fatalf("expected %d instances, got %d: %+v", len(tt.want), len(instances), instances)
			}
			for i, sym := range tt.want {
				if instances[i].Symbol != sym {
					t.Errorf("instance %d Symbol = %q, want %q", i, instances[i].Symbol, sym)
				}
			}
		})
	}
}
