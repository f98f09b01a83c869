package shopify

import "time"

// Typed mirrors of the Admin GraphQL responses we consume, decoded at the API
// boundary so the rest of the pipeline never touches loosely-typed data.

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type idNode struct {
	ID string `json:"id"`
}

type seoNode struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// --- products ---

const productQuery = `
query product($id: ID!) {
  product(id: $id) {
    id
    title
    descriptionHtml
    handle
    status
    updatedAt
    seo { title description }
    options { name position values }
    media(first: 100) {
      pageInfo { hasNextPage endCursor }
      edges { node { ... on MediaImage { id alt image { url } } } }
    }
    metafields(first: 100) {
      pageInfo { hasNextPage endCursor }
      edges { node { namespace key value type } }
    }
  }
}`

const productMediaQuery = `
query productMedia($id: ID!, $after: String) {
  product(id: $id) {
    media(first: 100, after: $after) {
      pageInfo { hasNextPage endCursor }
      edges { node { ... on MediaImage { id alt image { url } } } }
    }
  }
}`

const productMetafieldsQuery = `
query productMetafields($id: ID!, $after: String) {
  product(id: $id) {
    metafields(first: 100, after: $after) {
      pageInfo { hasNextPage endCursor }
      edges { node { namespace key value type } }
    }
  }
}`

const productIDsQuery = `
query productIds($after: String) {
  products(first: 250, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node { id } }
  }
}`

type mediaImageNode struct {
	ID    string `json:"id"`
	Alt   string `json:"alt"`
	Image struct {
		URL string `json:"url"`
	} `json:"image"`
}

type mediaConnection struct {
	PageInfo pageInfo `json:"pageInfo"`
	Edges    []struct {
		Node mediaImageNode `json:"node"`
	} `json:"edges"`
}

type metafieldNode struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type metafieldConnection struct {
	PageInfo pageInfo `json:"pageInfo"`
	Edges    []struct {
		Node metafieldNode `json:"node"`
	} `json:"edges"`
}

type productOptionNode struct {
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Values   []string `json:"values"`
}

type productNode struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	DescriptionHTML string              `json:"descriptionHtml"`
	Handle          string              `json:"handle"`
	Status          string              `json:"status"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	SEO             seoNode             `json:"seo"`
	Options         []productOptionNode `json:"options"`
	Media           mediaConnection     `json:"media"`
	Metafields      metafieldConnection `json:"metafields"`
}

type productResponse struct {
	Product *productNode `json:"product"`
}

type productMediaResponse struct {
	Product *struct {
		Media mediaConnection `json:"media"`
	} `json:"product"`
}

type productMetafieldsResponse struct {
	Product *struct {
		Metafields metafieldConnection `json:"metafields"`
	} `json:"product"`
}

type idConnectionResponse struct {
	PageInfo pageInfo `json:"pageInfo"`
	Edges    []struct {
		Node idNode `json:"node"`
	} `json:"edges"`
}

type productIDsResponse struct {
	Products idConnectionResponse `json:"products"`
}

// --- collections, articles, pages ---

const collectionQuery = `
query collection($id: ID!) {
  collection(id: $id) {
    id
    title
    descriptionHtml
    handle
    updatedAt
    seo { title description }
  }
}`

const collectionIDsQuery = `
query collectionIds($after: String) {
  collections(first: 250, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node { id } }
  }
}`

const articleQuery = `
query article($id: ID!) {
  article(id: $id) {
    id
    title
    body
    handle
    updatedAt
  }
}`

const articleIDsQuery = `
query articleIds($after: String) {
  articles(first: 250, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node { id } }
  }
}`

const pageQuery = `
query page($id: ID!) {
  page(id: $id) {
    id
    title
    body
    handle
    updatedAt
  }
}`

const pageIDsQuery = `
query pageIds($after: String) {
  pages(first: 250, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node { id } }
  }
}`

type contentNode struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	DescriptionHTML string    `json:"descriptionHtml"`
	Handle          string    `json:"handle"`
	UpdatedAt       time.Time `json:"updatedAt"`
	SEO             seoNode   `json:"seo"`
}

type collectionResponse struct {
	Collection *contentNode `json:"collection"`
}

type collectionIDsResponse struct {
	Collections idConnectionResponse `json:"collections"`
}

type articleResponse struct {
	Article *contentNode `json:"article"`
}

type articleIDsResponse struct {
	Articles idConnectionResponse `json:"articles"`
}

type pageResponse struct {
	Page *contentNode `json:"page"`
}

type pageIDsResponse struct {
	Pages idConnectionResponse `json:"pages"`
}

// --- menus ---

// Menu items cannot be fetched recursively over GraphQL; three levels covers
// the depth the online store supports.
const menuQuery = `
query menu($id: ID!) {
  menu(id: $id) {
    id
    title
    handle
    items {
      id title type url
      items {
        id title type url
        items { id title type url }
      }
    }
  }
}`

const menuIDsQuery = `
query menuIds($after: String) {
  menus(first: 250, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node { id } }
  }
}`

type menuItemNode struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Type  string         `json:"type"`
	URL   string         `json:"url"`
	Items []menuItemNode `json:"items"`
}

type menuNode struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Handle string         `json:"handle"`
	Items  []menuItemNode `json:"items"`
}

type menuResponse struct {
	Menu *menuNode `json:"menu"`
}

type menuIDsResponse struct {
	Menus idConnectionResponse `json:"menus"`
}

// --- policies ---

const shopPoliciesQuery = `
query shopPolicies {
  shop {
    shopPolicies { id type title body url }
  }
}`

type shopPolicyNode struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

type shopPoliciesResponse struct {
	Shop struct {
		ShopPolicies []shopPolicyNode `json:"shopPolicies"`
	} `json:"shop"`
}

// --- translations ---

const shopLocalesQuery = `
query shopLocales {
  shopLocales { locale primary published }
}`

const translatableContentQuery = `
query translatableContent($resourceId: ID!) {
  translatableResource(resourceId: $resourceId) {
    resourceId
    translatableContent { key value digest locale }
  }
}`

const resourceTranslationsQuery = `
query resourceTranslations($resourceId: ID!, $locale: String!) {
  translatableResource(resourceId: $resourceId) {
    resourceId
    translations(locale: $locale) { key value locale }
  }
}`

const translationsByIDsQuery = `
query translationsByIds($resourceIds: [ID!]!, $locale: String!) {
  translatableResourcesByIds(first: 250, resourceIds: $resourceIds) {
    edges {
      node {
        resourceId
        translations(locale: $locale) { key value locale }
      }
    }
  }
}`

const translatableResourcesQuery = `
query translatableResources($resourceType: TranslatableResourceType!, $after: String) {
  translatableResources(first: 100, resourceType: $resourceType, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges {
      node {
        resourceId
        translatableContent { key value digest locale }
      }
    }
  }
}`

const translationsRegisterMutation = `
mutation translationsRegister($resourceId: ID!, $translations: [TranslationInput!]!) {
  translationsRegister(resourceId: $resourceId, translations: $translations) {
    userErrors { field message }
  }
}`

type shopLocaleNode struct {
	Locale    string `json:"locale"`
	Primary   bool   `json:"primary"`
	Published bool   `json:"published"`
}

type shopLocalesResponse struct {
	ShopLocales []shopLocaleNode `json:"shopLocales"`
}

type translatableContentNode struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Digest string `json:"digest"`
	Locale string `json:"locale"`
}

type translationNode struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Locale string `json:"locale"`
}

type translatableResourceNode struct {
	ResourceID          string                    `json:"resourceId"`
	TranslatableContent []translatableContentNode `json:"translatableContent"`
	Translations        []translationNode         `json:"translations"`
}

type translatableResourceResponse struct {
	TranslatableResource *translatableResourceNode `json:"translatableResource"`
}

type translatableResourcesByIDsResponse struct {
	TranslatableResourcesByIDs struct {
		Edges []struct {
			Node translatableResourceNode `json:"node"`
		} `json:"edges"`
	} `json:"translatableResourcesByIds"`
}

type translatableResourcesResponse struct {
	TranslatableResources struct {
		PageInfo pageInfo `json:"pageInfo"`
		Edges    []struct {
			Node translatableResourceNode `json:"node"`
		} `json:"edges"`
	} `json:"translatableResources"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type translationsRegisterResponse struct {
	TranslationsRegister struct {
		UserErrors []userError `json:"userErrors"`
	} `json:"translationsRegister"`
}
