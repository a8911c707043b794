package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContains(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"plain feedback", "The dal was too salty, rice was fine", false},
		{"quantities are not phone numbers", "We threw away 12 kg of rice and 3.5 kg of dal", false},
		{"email", "mail me at priya.sharma@example.com", true},
		{"upi handle", "send refund to priya@okaxis", true},
		{"indian mobile", "call 98765 43210 after lunch", true},
		{"international prefix", "whatsapp +91-98765-43210", true},
		{"aadhaar", "my aadhaar is 2345 6789 0123", true},
		{"card", "paid with 4532 0151 1283 0366", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Contains(tt.text))
		})
	}
}

func TestDetect_Kinds(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
	}{
		{"reach me at cook@mess.example.org", KindEmail},
		{"upi ravi.k@ybl", KindUPI},
		{"ph 9876543210", KindPhone},
		{"+91 98765 43210", KindPhone},
		{"2345-6789-0123", KindAadhaar},
		{"4532015112830366", KindCard},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			detections := Detect(tt.text)
			require.Len(t, detections, 1)
			assert.Equal(t, tt.kind, detections[0].Kind)
		})
	}
}

func TestDetect_FailsLuhn(t *testing.T) {
	for _, d := range Detect("order 4532015112830367") {
		assert.NotEqual(t, KindCard, d.Kind)
	}
}

func TestDetect_NoOverlap(t *testing.T) {
	detections := Detect("write to anil@canteen.example.in or anil@okicici, or ring 98765-43210")
	require.Len(t, detections, 3)

	for i := 1; i < len(detections); i++ {
		assert.GreaterOrEqual(t, detections[i].Start, detections[i-1].End)
	}
	assert.Equal(t, KindEmail, detections[0].Kind)
	assert.Equal(t, KindUPI, detections[1].Kind)
	assert.Equal(t, KindPhone, detections[2].Kind)
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "nothing to redact",
			text:     "Paneer was cold",
			expected: "Paneer was cold",
		},
		{
			name:     "email and phone",
			text:     "Paneer was cold, contact a.b@example.com or 98765 43210",
			expected: "Paneer was cold, contact [EMAIL_REDACTED] or [PHONE_REDACTED]",
		},
		{
			name:     "aadhaar",
			text:     "id 2345 6789 0123 please",
			expected: "id [AADHAAR_REDACTED] please",
		},
		{
			name:     "empty",
			text:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Redact(tt.text))
		})
	}
}
