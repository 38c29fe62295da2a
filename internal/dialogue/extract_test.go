package dialogue

import "testing"

func TestExtractPayload(t *testing.T) {
	cases := []struct {
		name        string
		reply       string
		wantSpoken  string
		wantPayload bool
		wantEndCall bool
	}{
		{
			name:       "plain text reply",
			reply:      "Could you please share your transaction ID?",
			wantSpoken: "Could you please share your transaction ID?",
		},
		{
			name:       "open brace without close",
			reply:      "Thanks! {bad json",
			wantSpoken: "Thanks! {bad json",
		},
		{
			name:       "malformed json keeps whole reply including braces",
			reply:      `Thanks! {"end_call": }`,
			wantSpoken: `Thanks! {"end_call": }`,
		},
		{
			name:       "close brace before open brace",
			reply:      "weird } text { tail",
			wantSpoken: "weird } text { tail",
		},
		{
			name:        "goodbye prefix with valid payload",
			reply:       `Thank you for your feedback. Goodbye {"agent_name":"Raqmi Virtual Assistant","client_name":"Sara","transaction_id":"TX-9","problem_description":"double charge","user_rating":"5","end_call":true}`,
			wantSpoken:  "Thank you for your feedback. Goodbye",
			wantPayload: true,
			wantEndCall: true,
		},
		{
			name:        "payload only, empty spoken prefix",
			reply:       `{"agent_name":"Raqmi Virtual Assistant","client_name":"Ali","transaction_id":"TX-1","problem_description":"late refund","user_rating":"4","end_call":true}`,
			wantSpoken:  "",
			wantPayload: true,
			wantEndCall: true,
		},
		{
			name:        "valid payload without end flag",
			reply:       `Here is a recap {"client_name":"Ali","end_call":false}`,
			wantSpoken:  "Here is a recap",
			wantPayload: true,
			wantEndCall: false,
		},
		{
			name:        "numeric rating tolerated",
			reply:       `Goodbye {"client_name":"Ali","user_rating":5,"end_call":true}`,
			wantSpoken:  "Goodbye",
			wantPayload: true,
			wantEndCall: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spoken, payload := ExtractPayload(tc.reply)
			if spoken != tc.wantSpoken {
				t.Fatalf("spoken = %q, want %q", spoken, tc.wantSpoken)
			}
			if (payload != nil) != tc.wantPayload {
				t.Fatalf("payload presence = %v, want %v", payload != nil, tc.wantPayload)
			}
			if payload != nil && payload.EndCall != tc.wantEndCall {
				t.Fatalf("EndCall = %v, want %v", payload.EndCall, tc.wantEndCall)
			}
		})
	}
}

func TestExtractPayloadFields(t *testing.T) {
	spoken, payload := ExtractPayload(`Goodbye {"agent_name":"Raqmi Virtual Assistant","client_name":"Sara","transaction_id":"TX-42","problem_description":"card charged twice","user_rating":5,"end_call":true}`)
	if spoken != "Goodbye" {
		t.Fatalf("spoken = %q", spoken)
	}
	if payload == nil {
		t.Fatalf("payload missing")
	}
	if payload.ClientName != "Sara" || payload.TransactionID != "TX-42" {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.UserRating != "5" {
		t.Fatalf("UserRating = %q, want \"5\" from numeric input", payload.UserRating)
	}
	if payload.ProblemDescription != "card charged twice" {
		t.Fatalf("ProblemDescription = %q", payload.ProblemDescription)
	}
}
