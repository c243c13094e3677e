package model

import "sort"

// Sector labels for the curated screening universe.
const (
	SectorSemi        = "半導體/IC設計"
	SectorAIPC        = "AI/電腦週邊"
	SectorTraditional = "傳產/重電/原物料"
	SectorShipping    = "航運"
	SectorFinance     = "金融"
	SectorComponents  = "電子零組件/光電"
	SectorMemory      = "記憶體"
)

// StockInfo describes one listed symbol in the curated universe.
type StockInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// stockDB is the curated TWSE universe, keyed by normalized symbol.
// Delisted codes and codes the data source 404s on are already excluded.
var stockDB = map[string]StockInfo{
	// 記憶體
	"2408.TW": {"2408.TW", "南亞科", SectorMemory},
	"2344.TW": {"2344.TW", "華邦電", SectorMemory},
	"2337.TW": {"2337.TW", "旺宏", SectorMemory},
	"3260.TW": {"3260.TW", "威剛", SectorMemory},
	"2451.TW": {"2451.TW", "創見", SectorMemory},
	"8271.TW": {"8271.TW", "宇瞻", SectorMemory},
	"4967.TW": {"4967.TW", "十銓", SectorMemory},
	"3006.TW": {"3006.TW", "晶豪科", SectorMemory},

	// 半導體
	"2330.TW": {"2330.TW", "台積電", SectorSemi},
	"2454.TW": {"2454.TW", "聯發科", SectorSemi},
	"2303.TW": {"2303.TW", "聯電", SectorSemi},
	"3711.TW": {"3711.TW", "日月光投控", SectorSemi},
	"2379.TW": {"2379.TW", "瑞昱", SectorSemi},
	"3034.TW": {"3034.TW", "聯詠", SectorSemi},
	"3035.TW": {"3035.TW", "智原", SectorSemi},
	"3661.TW": {"3661.TW", "世芯-KY", SectorSemi},
	"6415.TW": {"6415.TW", "矽力-KY", SectorSemi},
	"3443.TW": {"3443.TW", "創意", SectorSemi},
	"6515.TW": {"6515.TW", "穎崴", SectorSemi},

	// AI/電腦週邊
	"2317.TW": {"2317.TW", "鴻海", SectorAIPC},
	"2382.TW": {"2382.TW", "廣達", SectorAIPC},
	"3231.TW": {"3231.TW", "緯創", SectorAIPC},
	"6669.TW": {"6669.TW", "緯穎", SectorAIPC},
	"2357.TW": {"2357.TW", "華碩", SectorAIPC},
	"3017.TW": {"3017.TW", "奇鋐", SectorAIPC},
	"2345.TW": {"2345.TW", "智邦", SectorAIPC},
	"2301.TW": {"2301.TW", "光寶科", SectorAIPC},
	"2376.TW": {"2376.TW", "技嘉", SectorAIPC},
	"2368.TW": {"2368.TW", "金像電", SectorAIPC},
	"2383.TW": {"2383.TW", "台光電", SectorAIPC},

	// 傳產/重電
	"1513.TW": {"1513.TW", "中興電", SectorTraditional},
	"1519.TW": {"1519.TW", "華城", SectorTraditional},
	"1503.TW": {"1503.TW", "士電", SectorTraditional},
	"1504.TW": {"1504.TW", "東元", SectorTraditional},
	"1605.TW": {"1605.TW", "華新", SectorTraditional},
	"2002.TW": {"2002.TW", "中鋼", SectorTraditional},
	"1101.TW": {"1101.TW", "台泥", SectorTraditional},
	"1301.TW": {"1301.TW", "台塑", SectorTraditional},
	"1303.TW": {"1303.TW", "南亞", SectorTraditional},
	"1326.TW": {"1326.TW", "台化", SectorTraditional},
	"9958.TW": {"9958.TW", "世紀鋼", SectorTraditional},
	"1216.TW": {"1216.TW", "統一", SectorTraditional},
	"2912.TW": {"2912.TW", "統一超", SectorTraditional},
	"2207.TW": {"2207.TW", "和泰車", SectorTraditional},

	// 航運
	"2603.TW": {"2603.TW", "長榮", SectorShipping},
	"2609.TW": {"2609.TW", "陽明", SectorShipping},
	"2615.TW": {"2615.TW", "萬海", SectorShipping},
	"2618.TW": {"2618.TW", "長榮航", SectorShipping},
	"2610.TW": {"2610.TW", "華航", SectorShipping},

	// 金融
	"2881.TW": {"2881.TW", "富邦金", SectorFinance},
	"2882.TW": {"2882.TW", "國泰金", SectorFinance},
	"2891.TW": {"2891.TW", "中信金", SectorFinance},
	"2886.TW": {"2886.TW", "兆豐金", SectorFinance},
	"2884.TW": {"2884.TW", "玉山金", SectorFinance},
	"2892.TW": {"2892.TW", "第一金", SectorFinance},
	"5880.TW": {"5880.TW", "合庫金", SectorFinance},
	"2880.TW": {"2880.TW", "華南金", SectorFinance},
	"2885.TW": {"2885.TW", "元大金", SectorFinance},
	"2883.TW": {"2883.TW", "開發金", SectorFinance},
	"2887.TW": {"2887.TW", "台新金", SectorFinance},
	"5871.TW": {"5871.TW", "中租-KY", SectorFinance},
	"2890.TW": {"2890.TW", "永豐金", SectorFinance},
	"5876.TW": {"5876.TW", "上海商銀", SectorFinance},

	// 電子零組件/光電
	"2308.TW": {"2308.TW", "台達電", SectorComponents},
	"3037.TW": {"3037.TW", "欣興", SectorComponents},
	"3008.TW": {"3008.TW", "大立光", SectorComponents},
	"2327.TW": {"2327.TW", "國巨", SectorComponents},
	"2412.TW": {"2412.TW", "中華電", SectorComponents},
	"4904.TW": {"4904.TW", "遠傳", SectorComponents},
	"3045.TW": {"3045.TW", "台灣大", SectorComponents},
	"3406.TW": {"3406.TW", "玉晶光", SectorComponents},
	"6271.TW": {"6271.TW", "同欣電", SectorComponents},
	"2395.TW": {"2395.TW", "研華", SectorComponents},
}

// LookupStock returns info for a normalized symbol.
func LookupStock(symbol string) (StockInfo, bool) {
	info, ok := stockDB[symbol]
	return info, ok
}

// StockName returns the display name for a symbol, or the symbol itself
// when it is not part of the curated universe.
func StockName(symbol string) string {
	if info, ok := stockDB[symbol]; ok {
		return info.Name
	}
	return symbol
}

// Sectors returns all sector labels, sorted for stable output.
func Sectors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, info := range stockDB {
		if !seen[info.Sector] {
			seen[info.Sector] = true
			out = append(out, info.Sector)
		}
	}
	sort.Strings(out)
	return out
}

// SymbolsBySector returns the sorted symbol set for one sector.
func SymbolsBySector(sector string) []string {
	var out []string
	for sym, info := range stockDB {
		if info.Sector == sector {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// StocksBySector returns full stock info for one sector, sorted by symbol.
func StocksBySector(sector string) []StockInfo {
	var out []StockInfo
	for _, info := range stockDB {
		if info.Sector == sector {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// AllSymbols returns every symbol in the universe, sorted.
func AllSymbols() []string {
	out := make([]string, 0, len(stockDB))
	for sym := range stockDB {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
