package knowledge

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		q    string
		want Intent
	}{
		{"Tell me about yourself", IntentIntro},
		{"Walk me through your resume, and what salary do you expect from this company?", IntentIntro},
		{"What's the salary range", IntentNegotiation},
		{"How much equity and bonus comes with the offer?", IntentNegotiation},
		{"Why do you want to work at this company?", IntentCompanyResearch},
		{"How would you design a distributed cache?", IntentTechnical},
		{"What's your favorite color?", IntentGeneral},
		{"", IntentGeneral},
		// one point each: negotiation wins the tie
		{"salary and culture", IntentNegotiation},
		// one point each: company_research beats technical
		{"mission and architecture", IntentCompanyResearch},
		// technical outscores company 3 to 1
		{"explain the database architecture of your product", IntentTechnical},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			if got := Classify(tt.q); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.q, got, tt.want)
			}
		})
	}
}

func TestClassifyTotal(t *testing.T) {
	valid := map[Intent]bool{
		IntentIntro: true, IntentCompanyResearch: true, IntentNegotiation: true,
		IntentTechnical: true, IntentGeneral: true,
	}
	for _, q := range []string{"?", "   ", "日本語の質問", "SALARY SALARY", "introduce yourself " + "salary company design "} {
		if got := Classify(q); !valid[got] {
			t.Errorf("Classify(%q) = %q, not a known intent", q, got)
		}
	}
	if got := Classify("Introduce yourself. Salary, compensation, bonus, equity, company culture?"); got != IntentIntro {
		t.Errorf("intro must win regardless of keyword density, got %s", got)
	}
}

func TestNeedsCompanyResearch(t *testing.T) {
	if !NeedsCompanyResearch("what's the salary range") {
		t.Error("negotiation should need company research")
	}
	if !NeedsCompanyResearch("tell me about the company culture") {
		t.Error("company questions should need company research")
	}
	if NeedsCompanyResearch("how would you debug a memory leak") {
		t.Error("technical questions should not need company research")
	}
}

func TestIsIntroQuestion(t *testing.T) {
	for _, q := range []string{"Could you tell us about yourself?", "Give me a quick intro", "Tell me about yourself"} {
		if !IsIntroQuestion(q) {
			t.Errorf("IsIntroQuestion(%q) = false", q)
		}
	}
	if IsIntroQuestion("Tell me about your last project") {
		t.Error("non-intro question matched")
	}
}
