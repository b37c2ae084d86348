package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/entity"
)

func TestExtractContactInfoFromStructuredSection(t *testing.T) {
	chunks := []string{
		"CONTACT INFORMATION:\nEmail: help@foodbank.org\nPhone: (555) 123-4567\nWebsite: https://foodbank.org/apply\nAddress: 120 Main Street, Springfield\n",
	}

	info := ExtractContactInfo(chunks)

	require.NotNil(t, info)
	assert.Equal(t, []string{"help@foodbank.org"}, info.Emails)
	assert.Equal(t, []string{"(555) 123-4567"}, info.Phones)
	assert.Equal(t, []string{"https://foodbank.org/apply"}, info.URLs)
	assert.Equal(t, []string{"120 Main Street, Springfield"}, info.Addresses)
}

func TestExtractContactInfoFallsBackToRawText(t *testing.T) {
	chunks := []string{
		"Call us at 555-123-4567 or email intake@clinic.example.com. More at https://clinic.example.com/services.",
	}

	info := ExtractContactInfo(chunks)

	require.NotNil(t, info)
	assert.Equal(t, []string{"intake@clinic.example.com"}, info.Emails)
	// raw phones are normalized to a uniform format
	assert.Equal(t, []string{"(555) 123-4567"}, info.Phones)
	require.Len(t, info.URLs, 1)
	// trailing punctuation is stripped from URLs
	assert.Equal(t, "https://clinic.example.com/services", info.URLs[0])
}

func TestExtractContactInfoRejectsPartialPhones(t *testing.T) {
	chunks := []string{"Suite 4567 opened in 1234."}

	info := ExtractContactInfo(chunks)

	assert.Nil(t, info)
}

func TestExtractContactInfoCapsResults(t *testing.T) {
	chunks := []string{
		"CONTACT INFORMATION:\nEmail: a@x.com, b@x.com, c@x.com, d@x.com, e@x.com\n",
	}

	info := ExtractContactInfo(chunks)

	require.NotNil(t, info)
	assert.Len(t, info.Emails, 3)
}

func TestExtractContactInfoDeduplicates(t *testing.T) {
	chunks := []string{
		"CONTACT INFORMATION:\nEmail: help@org.com\n",
		"CONTACT INFORMATION:\nEmail: help@org.com\n",
	}

	info := ExtractContactInfo(chunks)

	require.NotNil(t, info)
	assert.Equal(t, []string{"help@org.com"}, info.Emails)
}

func TestExtractCategories(t *testing.T) {
	chunks := []string{
		"CATEGORIES: food, housing\n\nCONTACT INFORMATION:\n",
		"CATEGORIES: housing, healthcare\nsome text",
		"no categories here",
	}

	categories := ExtractCategories(chunks)

	assert.Equal(t, []string{"food", "housing", "healthcare"}, categories)
}

func TestExtractProviders(t *testing.T) {
	chunks := []string{
		"PROVIDER: Jane Doe, MD\nSpecialty: Family Medicine",
		"PROVIDER: Springfield Food Bank\nHours: 9-5",
		"PROVIDER: Jane Doe, MD\nduplicate entry",
	}

	providers := ExtractProviders(chunks)

	require.Len(t, providers, 2)
	assert.Equal(t, entity.Provider{Name: "Jane Doe", Credential: "MD"}, providers[0])
	assert.Equal(t, entity.Provider{Name: "Springfield Food Bank"}, providers[1])
}

func TestExtractProvidersCappedAtFive(t *testing.T) {
	chunks := []string{
		"PROVIDER: A\n", "PROVIDER: B\n", "PROVIDER: C\n",
		"PROVIDER: D\n", "PROVIDER: E\n", "PROVIDER: F\n",
	}

	providers := ExtractProviders(chunks)

	assert.Len(t, providers, 5)
}

func TestSplitProviderCredentialIgnoresNonClinicalSuffix(t *testing.T) {
	p := splitProviderCredential("Acme Services, Inc")

	assert.Equal(t, "Acme Services, Inc", p.Name)
	assert.Empty(t, p.Credential)
}
