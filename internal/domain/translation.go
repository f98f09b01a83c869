package domain

// SourceContent is one entry of the upstream "translatableContent" arm: the
// primary-locale source text plus the digest used for change detection. Its
// Value must never be stored as a translation.
type SourceContent struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Digest string `json:"digest"`
	Locale string `json:"locale"`
}

// LocaleTranslation is one entry of the upstream "translations(locale)" arm:
// an actual translated value. Only values of this type become Translation rows.
type LocaleTranslation struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Locale string `json:"locale"`
}

// Translation is one cached `(resource, key, locale) -> value` mapping. Rows
// exist only for genuine upstream translations, never primary-locale text.
type Translation struct {
	Shop         string       `json:"shop" bson:"shop"`
	ResourceID   string       `json:"resource_id" bson:"resource_id"`
	ResourceType ResourceType `json:"resource_type" bson:"resource_type"`
	Key          string       `json:"key" bson:"key"`
	Locale       string       `json:"locale" bson:"locale"`
	Value        string       `json:"value" bson:"value"`
	Digest       string       `json:"digest,omitempty" bson:"digest,omitempty"`
}

// TranslationKey is the composite identity of a translation within one
// resource.
type TranslationKey struct {
	Key    string
	Locale string
}

// TranslationKeys extracts the composite identities of a translation set,
// used for stale-row pruning.
func TranslationKeys(translations []Translation) []TranslationKey {
	keys := make([]TranslationKey, 0, len(translations))
	for _, t := range translations {
		keys = append(keys, TranslationKey{Key: t.Key, Locale: t.Locale})
	}
	return keys
}
