package xiangqi

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidFEN = errors.New("invalid FEN")

// Encode 输出 FEN：10 行用“/”隔开，第一行是黑方底线，空格后 w/b 表示走子方
func (p *Position) Encode() string {
	var sb strings.Builder
	sb.WriteString(p.BoardFEN())
	sb.WriteByte(' ')
	if p.SideToMove == Black {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('w')
	}
	return sb.String()
}

// BoardFEN 只输出盘面部分
func (p *Position) BoardFEN() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < Cols; c++ {
			pc := p.pieceAt(NewSquare(r, c))
			if pc == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(pieceToChar(pc.Side, pc.Type))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	return sb.String()
}

// DecodePosition 解析 FEN，side 字段缺省为红先
func DecodePosition(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) == 0 {
		return nil, ErrInvalidFEN
	}
	rows := strings.Split(parts[0], "/")
	if len(rows) != Rows {
		return nil, ErrInvalidFEN
	}
	p := NewPosition()
	for r := 0; r < Rows; r++ {
		c := 0
		for _, ch := range rows[r] {
			if c >= Cols {
				return nil, ErrInvalidFEN
			}
			if ch >= '1' && ch <= '9' {
				c += int(ch - '0')
				continue
			}
			pt, ok := letterToPieceType[unicode.ToLower(ch)]
			if !ok {
				return nil, ErrInvalidFEN
			}
			side := Black
			if unicode.IsUpper(ch) {
				side = Red
			}
			// 重复的将或超过 16 子都会放置失败
			if !p.Place(side, pt, NewSquare(r, c)) {
				return nil, ErrInvalidFEN
			}
			c++
		}
		if c != Cols {
			return nil, ErrInvalidFEN
		}
	}
	p.SideToMove = Red
	if len(parts) > 1 {
		switch parts[1] {
		case "w", "r":
			p.SideToMove = Red
		case "b":
			p.SideToMove = Black
		default:
			return nil, ErrInvalidFEN
		}
	}
	return p, nil
}

// String 打印棋盘，调试用
func (p *Position) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		sb.WriteByte(byte('0' + r))
		sb.WriteByte(' ')
		for c := 0; c < Cols; c++ {
			pc := p.pieceAt(NewSquare(r, c))
			if pc == nil {
				sb.WriteByte('.')
			} else {
				sb.WriteRune(pieceToChar(pc.Side, pc.Type))
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefghi\n")
	return sb.String()
}
