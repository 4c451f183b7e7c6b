// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 command 将一句已定稿的语音转写解析为结构化的编辑指令。

# 概述

Parser 是无状态、确定性的：按固定顺序逐条检查规则，第一条命中的
规则决定结果。所有匹配均为小写文本上的子串包含判断，不做分词、
词干化或标点清理。解析永不失败，无法识别的输入得到 NoMatch。

# 规则顺序

 1. "add text"                  -> AddText
 2. "add circle"                -> AddShape{circle}
 3. "add rectangle" / "add box" -> AddShape{rect}
 4. "add triangle"              -> AddShape{triangle}
 5. "delete" / "remove"         -> DeleteActive
 6. "color"                     -> ChangeColor{首个出现的颜色} 或 NoMatch
 7. "center"                    -> CenterActive
 8. 其他                        -> NoMatch

例如 "remove the red box" 命中规则 5，而不是规则 3 或 6。
*/
package command
