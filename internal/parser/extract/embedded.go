package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

const embeddedScriptSelector = `script[type="application/ld+json"], script[type="application/json"], script#__NEXT_DATA__`

var (
	primaryKeys   = []string{"numbers", "winningNumbers", "mainNumbers", "balls"}
	secondaryKeys = []string{"euroNumbers", "euros", "stars", "luckyStars", "bonusNumbers", "powerball", "bonus"}
	dateKeys      = []string{"date", "drawDate", "drawnAt", "drawTime"}
	prizeKeys     = []string{"jackpot", "prize"}
)

// embeddedJSON reads draws from JSON payloads that client-rendered pages hydrate from.
type embeddedJSON struct{}

func (embeddedJSON) Name() string { return "embedded-json" }

func (embeddedJSON) Extract(doc *goquery.Document, scope Scope) ([]models.DrawRecord, bool) {
	var records []models.DrawRecord
	stopped := false

	doc.Find(embeddedScriptSelector).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		payload := strings.TrimSpace(script.Text())
		if !gjson.Valid(payload) {
			return true
		}
		walkJSON(gjson.Parse(payload), func(obj gjson.Result) bool {
			if len(records) >= scope.MaxRecords {
				stopped = true
				return false
			}
			rec, ok := recordFromJSON(obj, scope)
			if !ok {
				return true
			}
			if scope.tooOld(rec.Date) {
				stopped = true
				return false
			}
			records = append(records, rec)
			return true
		})
		return !stopped
	})
	return records, len(records) > 0
}

// walkJSON calls visit for every object carrying a primary numbers array, depth first.
// Objects that carry one are not descended into.
func walkJSON(v gjson.Result, visit func(gjson.Result) bool) bool {
	switch {
	case v.IsObject():
		if firstArray(v, primaryKeys).Exists() {
			return visit(v)
		}
		cont := true
		v.ForEach(func(_, child gjson.Result) bool {
			cont = walkJSON(child, visit)
			return cont
		})
		return cont
	case v.IsArray():
		cont := true
		v.ForEach(func(_, child gjson.Result) bool {
			cont = walkJSON(child, visit)
			return cont
		})
		return cont
	default:
		return true
	}
}

func recordFromJSON(obj gjson.Result, scope Scope) (models.DrawRecord, bool) {
	cfg := scope.Game.Config
	primary := jsonInts(firstArray(obj, primaryKeys))
	if len(primary) == 0 {
		return models.DrawRecord{}, false
	}

	var secondary []int
	if cfg.DualPool() {
		for _, key := range secondaryKeys {
			if v := obj.Get(key); v.Exists() {
				secondary = jsonInts(v)
				break
			}
		}
	}

	date := scope.Now
	for _, key := range dateKeys {
		if v := obj.Get(key); v.Exists() {
			if t, ok := parseDate(v.String()); ok {
				date = t
				break
			}
		}
	}

	rec := models.NewDrawRecord(date, primary, secondary)
	for _, key := range prizeKeys {
		if v := obj.Get(key); v.Exists() && !v.IsObject() && !v.IsArray() {
			rec.Prize = v.String()
			break
		}
	}
	rec.Winners = obj.Get("winners").String()
	rec.Location = obj.Get("location").String()
	return rec, true
}

func firstArray(obj gjson.Result, keys []string) gjson.Result {
	for _, key := range keys {
		if v := obj.Get(key); v.IsArray() {
			return v
		}
	}
	return gjson.Result{}
}

// jsonInts accepts arrays of numbers or numeric strings, a single number, or a space
// separated string.
func jsonInts(v gjson.Result) []int {
	switch {
	case v.IsArray():
		var out []int
		for _, item := range v.Array() {
			out = append(out, jsonInts(item)...)
		}
		return out
	case v.Type == gjson.Number:
		return []int{int(v.Int())}
	case v.Type == gjson.String:
		return tokenize(v.Str)
	default:
		return nil
	}
}
