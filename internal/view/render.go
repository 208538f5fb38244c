package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	headingColor = color.New(color.Bold)
	errorColor   = color.New(color.FgRed)
	priceColor   = color.New(color.FgGreen, color.Bold)
	mutedColor   = color.New(color.Faint)
)

// RenderItems writes the item list in its current phase.
func RenderItems(w io.Writer, s ItemListState) {
	switch s.Phase {
	case PhaseLoading:
		fmt.Fprintln(w, MsgLoadingItems)
	case PhaseError:
		errorColor.Fprintln(w, TitleItemsError)
		fmt.Fprintln(w, s.Error)
	case PhaseReady:
		headingColor.Fprintln(w, TitleItems)
		mutedColor.Fprintln(w, ItemCountLabel(len(s.Items)))
		fmt.Fprintln(w)
		if s.Empty() {
			fmt.Fprintln(w, MsgNoItems)
			mutedColor.Fprintln(w, MsgNoItemsHint)
			return
		}
		for _, it := range s.Items {
			card := NewItemCard(it)
			fmt.Fprintf(w, "%s  [ID: %s]\n", headingColor.Sprint(card.Name), card.ShortID)
			if card.Description != "" {
				fmt.Fprintf(w, "  %s\n", card.Description)
			}
			fmt.Fprintf(w, "  $%s\n\n", priceColor.Sprint(card.DisplayPrice))
		}
	}
}

// RenderReviews writes the review panel: the average line followed by one
// block per review, or the empty state.
func RenderReviews(w io.Writer, s ReviewPanelState) {
	if s.Loading {
		fmt.Fprintln(w, MsgLoadingReviews)
		return
	}
	if s.Summary == nil {
		fmt.Fprintln(w, MsgNoReviews)
		mutedColor.Fprintln(w, MsgBeFirst)
		return
	}

	fmt.Fprintf(w, "%s %s\n", ColorStars(s.Summary.Stars), s.Summary.Label())
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, r := range s.Reviews {
		fmt.Fprintf(w, "%s  %s  %s\n",
			headingColor.Sprint(r.ReviewerName),
			ColorStars(r.Rating),
			mutedColor.Sprint(DateLabel(r.CreatedAt)),
		)
		fmt.Fprintf(w, "  %s\n\n", r.Comment)
	}
}

// RenderNotice writes a titled message, in red when failed is set.
func RenderNotice(w io.Writer, title, message string, failed bool) {
	c := headingColor
	if failed {
		c = errorColor
	}
	c.Fprintln(w, title)
	fmt.Fprintln(w, message)
}
