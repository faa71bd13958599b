// Package selectors holds the css locators used to find each logical field
// on a product page.
package selectors

import "fmt"

type Product struct {
	Title          string `json:"title"`
	Brand          string `json:"brand"`
	PriceContainer string `json:"price_container"`
	ReviewsLink    string `json:"reviews_link"`
	RatingElement  string `json:"rating_element"`
	ReviewsCount   string `json:"reviews_count_text"`
	Description    string `json:"description_list"`
}

type Reviews struct {
	Container     string `json:"container"`
	Item          string `json:"review_item"`
	Author        string `json:"author"`
	RatingIcon    string `json:"rating_icon"`
	Title         string `json:"title"`
	Body          string `json:"comment_body"`
	Date          string `json:"date"`
	VerifiedBadge string `json:"verified_badge"`
	// fmt template taking the 1-based page number, must only match the
	// control for exactly that page
	PageButton string `json:"page_button"`
}

type Dialogs struct {
	ClosePromo string `json:"close_promo_button"`
}

// Map is passed by value and never modified after it is built.
type Map struct {
	Product Product `json:"product"`
	Reviews Reviews `json:"reviews"`
	Dialogs Dialogs `json:"dialogs"`
}

func Default() Map {
	return Map{
		Product: Product{
			Title:          "h1.product-title",
			Brand:          "div.seller-store-link strong",
			PriceContainer: "div.form-option-item.is-selected",
			ReviewsLink:    `div.tab-nav[data-nav="Reviews"]`,
			RatingElement:  "div.product-rating > i.rating",
			ReviewsCount:   "div.product-rating > span.item-rating-num",
			Description:    "div.product-bullets ul li",
		},
		Reviews: Reviews{
			Container:     "div.comments",
			Item:          "div.comments-cell",
			Author:        "div.comments-name",
			RatingIcon:    `i[class^="rating rating-"]`,
			Title:         "span.comments-title-content",
			Body:          "div.comments-content",
			Date:          "div.comments-title > span.comments-text",
			VerifiedBadge: "div.comments-verified-owner",
			PageButton:    `ol.paginations a.button:matchesOwn(^\s*%d\s*$)`,
		},
		Dialogs: Dialogs{
			ClosePromo: `[aria-label="close"]`,
		},
	}
}

func (m Map) PageButton(page int) string {
	return fmt.Sprintf(m.Reviews.PageButton, page)
}
