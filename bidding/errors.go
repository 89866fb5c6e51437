package bidding

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrItemNotFound 表示指定的拍賣品不存在
	ErrItemNotFound = errors.New("auction item not found")
	// ErrItemNotBiddable 表示拍賣品目前未開放出價
	ErrItemNotBiddable = errors.New("auction item is not open for bidding")
	// ErrConflict 表示出價在交易提交時輸給了並行的出價
	// 呼叫端應重新讀取目前價格後再決定是否重新出價
	ErrConflict = errors.New("bid lost to a concurrent bid")
)

// ValidationError 表示出價請求的欄位未通過驗證
// Fields 以欄位名稱為鍵，值為給使用者看的錯誤訊息
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(names, ", "))
}

// BidTooLowError 表示出價金額沒有超過目前的最高出價
type BidTooLowError struct {
	CurrentBid int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be higher than the current bid of %d", e.CurrentBid)
}

// InvalidIncrementError 表示出價金額不符合最低加價幅度
// MinimumNext 是下一個合法的出價金額
type InvalidIncrementError struct {
	CurrentBid  int64
	MinimumNext int64
}

func (e *InvalidIncrementError) Error() string {
	return fmt.Sprintf("bid does not respect the minimum increment, minimum next bid is %d", e.MinimumNext)
}

// FraudRejectedError 表示詐欺檢查服務標記了這筆出價
type FraudRejectedError struct {
	Reason string
}

func (e *FraudRejectedError) Error() string {
	return fmt.Sprintf("bid flagged as potentially fraudulent: %s", e.Reason)
}

// TransientError 表示底層的儲存或詐欺檢查呼叫因為營運因素失敗
// 交易保證不會留下部分狀態，呼叫端可以重試整個操作
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("[%s] transient failure, err=%v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
