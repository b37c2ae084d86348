package answer

import (
	"regexp"
	"strings"

	"docchat-be/internal/entity"
)

// Extraction works over the retrieved context chunks, not the model
// output: the chunks are the ground truth and the model may paraphrase.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\(\d{3}\)\s*|\d{3}[-.\s]?)?\d{3}[-.\s]?\d{4}`)
	urlPattern   = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	digitOnly    = regexp.MustCompile(`[^\d]`)
)

const (
	maxContactItems = 3
	maxProviders    = 5
)

// ExtractContactInfo pulls emails, phones, URLs and addresses from the
// context chunks. Structured "CONTACT INFORMATION:" sections are
// preferred; raw text scanning is the fallback. Each list is capped so
// a directory document cannot flood the response.
func ExtractContactInfo(chunks []string) *entity.ContactInfo {
	info := &entity.ContactInfo{}

	// Pass 1: normalized sections
	for _, chunk := range chunks {
		if !strings.Contains(chunk, "CONTACT INFORMATION:") {
			continue
		}
		for _, line := range strings.Split(chunk, "\n") {
			switch {
			case strings.Contains(line, "Email:"):
				info.Emails = append(info.Emails, emailPattern.FindAllString(line, -1)...)
			case strings.Contains(line, "Phone:"):
				info.Phones = append(info.Phones, findValidPhones(line)...)
			case strings.Contains(line, "Website:") || strings.Contains(line, "URL:"):
				info.URLs = append(info.URLs, findValidURLs(line)...)
			case strings.Contains(line, "Address:"):
				address := strings.TrimSpace(strings.Replace(line, "Address:", "", 1))
				if address != "" {
					info.Addresses = append(info.Addresses, address)
				}
			}
		}
	}

	// Pass 2: raw text, only when nothing structured was found
	if len(info.Emails) == 0 && len(info.Phones) == 0 && len(info.URLs) == 0 && len(info.Addresses) == 0 {
		for _, chunk := range chunks {
			info.Emails = append(info.Emails, emailPattern.FindAllString(chunk, -1)...)
			info.Phones = append(info.Phones, findValidPhones(chunk)...)
			info.URLs = append(info.URLs, findValidURLs(chunk)...)
		}
	}

	info.Emails = dedupeAndCap(info.Emails, maxContactItems)
	info.Phones = dedupeAndCap(info.Phones, maxContactItems)
	info.URLs = dedupeAndCap(info.URLs, maxContactItems)
	info.Addresses = dedupeAndCap(info.Addresses, maxContactItems)

	if len(info.Emails) == 0 && len(info.Phones) == 0 && len(info.URLs) == 0 && len(info.Addresses) == 0 {
		return nil
	}
	return info
}

// findValidPhones keeps only complete 10-digit numbers and formats them
// uniformly as (xxx) xxx-xxxx.
func findValidPhones(text string) []string {
	var phones []string
	for _, match := range phonePattern.FindAllString(text, -1) {
		digits := digitOnly.ReplaceAllString(match, "")
		if len(digits) == 10 {
			phones = append(phones, "("+digits[:3]+") "+digits[3:6]+"-"+digits[6:])
		}
	}
	return phones
}

func findValidURLs(text string) []string {
	var urls []string
	for _, match := range urlPattern.FindAllString(text, -1) {
		url := strings.TrimRight(match, ".,;!?")
		if strings.Contains(url, ".") && !strings.HasSuffix(url, "..") && len(url) > 10 {
			urls = append(urls, url)
		}
	}
	return urls
}

// ExtractCategories collects categories from "CATEGORIES:" lines in the
// context chunks.
func ExtractCategories(chunks []string) []string {
	var categories []string
	for _, chunk := range chunks {
		if !strings.Contains(chunk, "CATEGORIES:") {
			continue
		}
		for _, line := range strings.Split(chunk, "\n") {
			if !strings.Contains(line, "CATEGORIES:") {
				continue
			}
			cats := strings.TrimSpace(strings.Replace(line, "CATEGORIES:", "", 1))
			for _, c := range strings.Split(cats, ",") {
				if c = strings.TrimSpace(c); c != "" {
					categories = append(categories, c)
				}
			}
		}
	}
	return dedupeAndCap(categories, 0)
}

// ExtractProviders collects provider names from "PROVIDER:" markers,
// capped at five as a directory listing rather than a dump.
func ExtractProviders(chunks []string) []entity.Provider {
	var names []string
	for _, chunk := range chunks {
		if !strings.Contains(chunk, "PROVIDER:") {
			continue
		}
		rest := strings.SplitN(chunk, "PROVIDER:", 2)[1]
		name := strings.TrimSpace(strings.SplitN(rest, "\n", 2)[0])
		if name != "" {
			names = append(names, name)
		}
	}
	names = dedupeAndCap(names, maxProviders)

	providers := make([]entity.Provider, 0, len(names))
	for _, name := range names {
		providers = append(providers, splitProviderCredential(name))
	}
	return providers
}

// splitProviderCredential separates a trailing clinical credential
// ("Jane Doe, MD") from the provider name when present.
func splitProviderCredential(name string) entity.Provider {
	credentials := []string{"MD", "NP", "DO", "PA", "RN"}
	if idx := strings.LastIndex(name, ","); idx >= 0 {
		suffix := strings.TrimSpace(name[idx+1:])
		for _, cred := range credentials {
			if suffix == cred {
				return entity.Provider{
					Name:       strings.TrimSpace(name[:idx]),
					Credential: cred,
				}
			}
		}
	}
	return entity.Provider{Name: name}
}

// dedupeAndCap removes duplicates preserving first-seen order. A max of
// zero means unlimited.
func dedupeAndCap(items []string, max int) []string {
	seen := make(map[string]struct{}, len(items))
	var result []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
		if max > 0 && len(result) == max {
			break
		}
	}
	return result
}
