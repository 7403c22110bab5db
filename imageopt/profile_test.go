package imageopt

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		class Class
		want  Profile
	}{
		{"dashboard-vendas.png", ClassLossless, Profile{Lossless: true}},
		{"Print_Resultado.JPG", ClassLossless, Profile{Lossless: true}},
		{"grafico1.jpeg", ClassLossless, Profile{Lossless: true}},
		{"hero-bg.jpg", ClassBackground, Profile{Quality: 65}},
		{"FUNDO.png", ClassBackground, Profile{Quality: 65}},
		{"background-azul.png", ClassBackground, Profile{Quality: 65}},
		{"foto1.jpg", ClassDefault, Profile{Quality: 80}},
		{"mentor.png", ClassDefault, Profile{Quality: 80}},
	}

	for _, tc := range cases {
		got := Classify(DefaultRules, tc.name)
		if got.Class != tc.class || got.Profile != tc.want {
			t.Fatalf("Classify(%q) = %s %+v, want %s %+v", tc.name, got.Class, got.Profile, tc.class, tc.want)
		}
	}
}

func TestClassify_ChartTermsBeatBackgroundTerms(t *testing.T) {
	got := Classify(DefaultRules, "bg-dashboard.png")
	if got.Class != ClassLossless {
		t.Fatalf("expected lossless to win over background, got %s", got.Class)
	}
}

func TestClassify_FirstMatchWinsInTableOrder(t *testing.T) {
	rules := []Rule{
		{Class: ClassBackground, Keywords: []string{"bg"}, Profile: Profile{Quality: 50}},
		{Class: ClassLossless, Keywords: []string{"dashboard"}, Profile: Profile{Lossless: true}},
	}
	got := Classify(rules, "bg-dashboard.png")
	if got.Class != ClassBackground || got.Profile.Quality != 50 {
		t.Fatalf("expected first rule to win, got %s %+v", got.Class, got.Profile)
	}

	got = Classify(rules, "foto.png")
	if got.Class != ClassDefault || got.Profile.Quality != 80 {
		t.Fatalf("expected default when nothing matches, got %s %+v", got.Class, got.Profile)
	}
}

func TestProfileString(t *testing.T) {
	if s := (Profile{Lossless: true}).String(); s != "lossless" {
		t.Fatalf("unexpected %q", s)
	}
	if s := (Profile{Quality: 65}).String(); s != "quality: 65" {
		t.Fatalf("unexpected %q", s)
	}
}
