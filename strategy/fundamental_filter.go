package strategy

import (
	"github.com/guoqi2046/aselect/config"
	"github.com/guoqi2046/aselect/model"
)

// IsGoodFundamental 基本面选股策略，基于最新一期估值指标：
// 1) 市盈率在 (min_pe, max_pe] 区间
// 2) 市净率在 (0, max_pb] 区间
// 3) 净资产收益率不低于 min_roe
// 指标表为空或所需列缺失（NaN）时不命中。
func IsGoodFundamental(fd *model.Fundamentals, p config.FundamentalFilterParams) bool {
	if fd == nil || len(fd.Valuation) == 0 {
		return false
	}

	latest := fd.Valuation[len(fd.Valuation)-1]

	// NaN 参与比较恒为 false，列缺失自然落入不命中
	if !(latest.PE > p.MinPE && latest.PE <= p.MaxPE) {
		return false
	}
	if !(latest.PB > 0 && latest.PB <= p.MaxPB) {
		return false
	}
	return latest.ROE >= p.MinROE
}
