package directory

import (
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/doralscan/internal/model"
)

const directoryURL = "https://www.cityofdoral.com/businesses/local-discounts/"

const directoryHTML = `<!DOCTYPE html>
<html><body>
<div class="container">
  <div class="row bus_row">
    <h3>
      Doral Bakery
      <div>Restaurants &amp; Food</div>
    </h3>
    <section class="col-sm-12 label-dis"><div>10% off all cakes</div></section>
    <section class="col-sm-12 bus_site"><a href="https://doralbakery.example.com">Website</a></section>
  </div>
  <div class="row bus_row">
    <h3>Palm Auto Repair<div>Automotive</div></h3>
    <section class="col-sm-12 bus_site"><a href="www.palmauto.example.com">Website</a></section>
  </div>
  <div class="row bus_row">
    <h3>Quiet Yoga<div>Health</div></h3>
    <section class="col-sm-12 label-dis"><div>First class free</div></section>
  </div>
  <div class="row other_row">
    <h3>Not a business</h3>
  </div>
</div>
</body></html>`

func parseRecords(t *testing.T, p *Parser, page string) []model.BusinessRecord {
	t.Helper()

	doc, err := p.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return slices.Collect(p.Records(doc))
}

func TestParser_Records(t *testing.T) {
	t.Parallel()

	p, err := NewParser(directoryURL)
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}
	records := parseRecords(t, p, directoryHTML)

	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	tests := []struct {
		name     string
		industry string
		offer    string
		website  string
	}{
		{name: "Doral Bakery", industry: "Restaurants & Food", offer: "10% off all cakes", website: "https://doralbakery.example.com"},
		{name: "Palm Auto Repair", industry: "Automotive", offer: "", website: "www.palmauto.example.com"},
		{name: "Quiet Yoga", industry: "Health", offer: "First class free", website: ""},
	}
	for i, tt := range tests {
		rec := records[i]
		if got := rec.NameOrEmpty(); got != tt.name {
			t.Errorf("records[%d].Name = %q, want %q", i, got, tt.name)
		}
		if got := rec.IndustryOrEmpty(); got != tt.industry {
			t.Errorf("records[%d].Industry = %q, want %q", i, got, tt.industry)
		}
		if got := rec.OfferOrEmpty(); got != tt.offer {
			t.Errorf("records[%d].Offer = %q, want %q", i, got, tt.offer)
		}
		if got := rec.WebsiteOrEmpty(); got != tt.website {
			t.Errorf("records[%d].Website = %q, want %q", i, got, tt.website)
		}
		if rec.Phones != nil {
			t.Errorf("records[%d].Phones should be unset before follow-up", i)
		}
	}
}

func TestParser_MissingFieldsAreNil(t *testing.T) {
	t.Parallel()

	p, err := NewParser(directoryURL)
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	t.Run("missing offer", func(t *testing.T) {
		t.Parallel()
		records := parseRecords(t, p, `<div class="row bus_row"><h3>X<div>Retail</div></h3></div>`)
		if len(records) != 1 {
			t.Fatalf("len(records) = %d, want 1", len(records))
		}
		rec := records[0]
		if rec.Offer != nil {
			t.Errorf("Offer = %q, want nil", *rec.Offer)
		}
		if rec.NameOrEmpty() != "X" || rec.IndustryOrEmpty() != "Retail" {
			t.Errorf("other fields = (%q, %q), want (X, Retail)", rec.NameOrEmpty(), rec.IndustryOrEmpty())
		}
		if rec.HasWebsite() {
			t.Error("HasWebsite() = true, want false")
		}
	})

	t.Run("blank fields", func(t *testing.T) {
		t.Parallel()
		records := parseRecords(t, p, `<div class="row bus_row">
			<h3>   <div>  </div></h3>
			<section class="label-dis"><div>
			</div></section>
			<section class="bus_site"><a href="  ">Website</a></section>
		</div>`)
		if len(records) != 1 {
			t.Fatalf("len(records) = %d, want 1", len(records))
		}
		rec := records[0]
		if rec.Name != nil || rec.Industry != nil || rec.Offer != nil || rec.Website != nil {
			t.Errorf("record = %+v, want all fields nil", rec)
		}
	})

	t.Run("anchor without href", func(t *testing.T) {
		t.Parallel()
		records := parseRecords(t, p, `<div class="row bus_row"><h3>Y</h3><section class="bus_site"><a>Site</a></section></div>`)
		if len(records) != 1 || records[0].Website != nil {
			t.Errorf("records = %+v, want one record without website", records)
		}
	})

	t.Run("no blocks", func(t *testing.T) {
		t.Parallel()
		if records := parseRecords(t, p, `<html><body><p>Maintenance</p></body></html>`); len(records) != 0 {
			t.Errorf("len(records) = %d, want 0", len(records))
		}
	})
}

func TestParser_RecordsStopsEarly(t *testing.T) {
	t.Parallel()

	p, err := NewParser(directoryURL)
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}
	doc, err := p.Parse(strings.NewReader(directoryHTML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var names []string
	for rec := range p.Records(doc) {
		names = append(names, rec.NameOrEmpty())
		break
	}
	if !slices.Equal(names, []string{"Doral Bakery"}) {
		t.Errorf("names = %v, want [Doral Bakery]", names)
	}
}

func TestParser_WithSelectors(t *testing.T) {
	t.Parallel()

	p, err := NewParser(directoryURL, WithSelectors(Selectors{
		Block: "li.biz",
		Name:  "strong",
	}))
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	got := p.Selectors()
	if got.Block != "li.biz" || got.Name != "strong" {
		t.Errorf("Selectors() = %+v, want overridden block and name", got)
	}
	if got.Website != DefaultWebsiteSelector || got.WebsiteAttr != DefaultWebsiteAttr {
		t.Errorf("Selectors() = %+v, want default website selector kept", got)
	}

	records := parseRecords(t, p, `<ul>
		<li class="biz"><strong>Cafe Uno</strong><section class="bus_site"><a href="/cafe">x</a></section></li>
		<li class="biz"><strong>Cafe Dos</strong></li>
	</ul>`)
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].NameOrEmpty() != "Cafe Uno" || records[0].WebsiteOrEmpty() != "/cafe" {
		t.Errorf("records[0] = %+v", records[0])
	}
}

func TestNewParser_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := NewParser("http://[::1"); err == nil {
		t.Error("NewParser() should fail for an unparseable URL")
	}
}
