package utils

// SecID 返回东财行情接口使用的 secid，市场前缀 1=沪 0=深/北
func SecID(code string) string {
	if len(code) < 2 {
		return "0." + code
	}

	switch code[:2] {
	case "60", "68", "51", "58", "90":
		return "1." + code
	default:
		return "0." + code
	}
}

// SecuCode 返回带交易所后缀的证券代码，如 600000.SH
func SecuCode(code string) string {
	if len(code) < 2 {
		return code
	}

	switch code[:2] {
	case "60", "68", "90":
		return code + ".SH"
	case "92", "87", "83", "43":
		return code + ".BJ"
	default:
		return code + ".SZ"
	}
}
