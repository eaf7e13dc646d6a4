package content

import (
	"html/template"
	"strings"

	"github.com/plumline/promoboard/internal/pricing"
)

// lineLabels maps discount kinds onto the labels shown in published posts.
var lineLabels = map[pricing.LineKind]string{
	pricing.LineDiscountCode: "할인코드",
	pricing.LineStoreCoupon:  "스토어쿠폰",
	pricing.LineCoin:         "코인할인",
	pricing.LineCardDiscount: "카드할인",
}

// Post carries everything needed to render a promotional post.
type Post struct {
	Title      string
	ProductURL string
	ImageURL   string
	SaleVolume string
	Pricing    *pricing.Result
	Reviews    []string
	Tags       []string
	Footer     string
}

// PriceLine is one rendered row of the pricing block.
type PriceLine struct {
	Label string
	Value string
}

// Subject returns the post title used for platforms that take a separate
// subject field.
func (p Post) Subject() string {
	return strings.TrimSpace(p.Title)
}

// PriceLines flattens the pricing result into labelled display rows: base
// price first, each applied discount in order, final price last. A nil
// pricing result yields no rows.
func (p Post) PriceLines() []PriceLine {
	if p.Pricing == nil {
		return nil
	}
	lines := make([]PriceLine, 0, len(p.Pricing.Applied)+2)
	lines = append(lines, PriceLine{Label: "판매가", Value: pricing.Format(p.Pricing.Base)})
	for _, a := range p.Pricing.Applied {
		label := lineLabels[a.Kind]
		if a.Code != "" {
			label += " " + a.Code
		}
		lines = append(lines, PriceLine{Label: label, Value: a.Display})
	}
	lines = append(lines, PriceLine{Label: "최종가", Value: pricing.Format(p.Pricing.Final)})
	return lines
}

var cafeTemplate = template.Must(template.New("cafe").Parse(`<div class="promo">
{{- if .ImageURL}}
<p><img src="{{.ImageURL}}" alt="{{.Title}}"></p>
{{- end}}
<h3>{{.Title}}</h3>
{{- if .SaleVolume}}
<p>누적 판매 {{.SaleVolume}}</p>
{{- end}}
{{- if .PriceLines}}
<ul>
{{- range .PriceLines}}
<li>{{.Label}}: {{.Value}}</li>
{{- end}}
</ul>
{{- end}}
{{- range .Reviews}}
<blockquote>{{.}}</blockquote>
{{- end}}
<p><a href="{{.ProductURL}}">{{.ProductURL}}</a></p>
{{- if .Tags}}
<p>{{range .Tags}}#{{.}} {{end}}</p>
{{- end}}
{{- if .Footer}}
<p>{{.Footer}}</p>
{{- end}}
</div>`))

// RenderHTML renders the post body for platforms that accept HTML content.
func (p Post) RenderHTML() (string, error) {
	var b strings.Builder
	if err := cafeTemplate.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderText renders a plain-text body for platforms without HTML support.
func (p Post) RenderText() string {
	var b strings.Builder
	b.WriteString(p.Subject())
	b.WriteString("\n")
	if p.SaleVolume != "" {
		b.WriteString("\n누적 판매 " + p.SaleVolume + "\n")
	}
	if lines := p.PriceLines(); len(lines) > 0 {
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString(line.Label + ": " + line.Value + "\n")
		}
	}
	for _, review := range p.Reviews {
		b.WriteString("\n\"" + review + "\"\n")
	}
	b.WriteString("\n" + p.ProductURL + "\n")
	if len(p.Tags) > 0 {
		b.WriteString("\n")
		for i, tag := range p.Tags {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString("#" + tag)
		}
		b.WriteString("\n")
	}
	if p.Footer != "" {
		b.WriteString("\n" + p.Footer + "\n")
	}
	return b.String()
}
